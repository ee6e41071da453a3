package docs

// @title           HpyRide Functions Service
// @version         1.0
// @description     Named functions invoked with POST /functions/v1/{name}: admin-data, navigation-ai-chat, send-push-notification, broadcast-notification, send-otp, verify-otp, verify-phone-email.

// @host      localhost:3002
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @securityDefinitions.apikey ServiceKey
// @in header
// @name X-Service-Key
