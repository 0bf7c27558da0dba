// Package grpc exposes the standard grpc.health.v1 service so orchestrators
// that probe over gRPC can check the service. It is started only when a gRPC
// port is configured.
package grpc
