/*
Package health implements a small Checker interface (Check, Type) used at
bootstrap to probe the state store's reachability before the process
starts serving requests. The readiness endpoint does not use it; it
reflects the metrics Collector's periodic store Ping.

Only the TCP checker is retained; HTTP and exec checks had no place in
this domain and were dropped (see DESIGN.md).
*/
package health
