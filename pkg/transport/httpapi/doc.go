/*
Package httpapi implements the request/response transport: GET
/server-status, POST /context/create, POST /context/<id>/reads, POST
/context/<id>/close, and POST /context/<id>/request-data. Server wraps
http.ServeMux the way the teacher's health HTTP server does, with a
logging and metrics middleware wrapping every handler.
*/
package httpapi
