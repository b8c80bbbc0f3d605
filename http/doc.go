// Package http provides the REST surface for galleria.
//
// The router exposes the user-directory routes (/add-user, /login,
// /get-users, /delete-user/{id}, /change-password) and the bucket routes
// (/folders, /folders/{name}, /folder/{name}, /image/{folder}/{name},
// /upload). All bodies are JSON except /upload, which is multipart form data
// with an "image" file field and a "folder" field.
//
// # Error Responses
//
// Errors carry a machine code and a human message:
//
//	{"error": "duplicate_username", "message": "Username already exists"}
//
// Mapping: invalid input 400, bad credentials 401, missing resource 404,
// duplicate username 409, upstream timeout 504, anything else 500. Provider
// error text is logged server-side and never echoed into responses.
//
// # Usage
//
//	handler := http.NewHandler(&http.HandlerConfig{CORS: corsCfg}, gallery, users)
//	srv := &nethttp.Server{Addr: ":5000", Handler: handler.Router()}
//	srv.ListenAndServe()
package http
