package httpapi

// BasePath is the prefix of every REST route.
const BasePath = "/api/v1"
