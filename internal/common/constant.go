package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on authenticated requests.
const AccessTokenHeaderName = "access_token"

// AccountIDLogKey is the log attribute name used for account identifiers.
const AccountIDLogKey = "account_id"
