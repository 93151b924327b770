/*
Package admission implements the validate/price/budget-decide pipeline
shared by both transports: it turns a client-submitted Batch into either a
rejection (with a typed Error the transport renders) or a Job handed to the
queue publisher.

Validate, Price, and Decide are exported separately from the combined Admit
entry point precisely so the HTTP and socket transports can share one code
path while presenting it differently (status codes vs named error events).
*/
package admission
