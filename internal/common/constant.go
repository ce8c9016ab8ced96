package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on write requests.
const AccessTokenHeaderName = "access_token"

// FileNameHeaderName is the gRPC metadata key carrying the target name of a
// Save call, whose message body is the raw content.
const FileNameHeaderName = "file_name"

// RequestIDHeaderName is echoed back by both the gRPC and HTTP surfaces.
const RequestIDHeaderName = "x-request-id"
