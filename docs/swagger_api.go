package docs

// @title           HpyRide API Service
// @version         1.0
// @description     REST surface of HpyRide: user auth, rides, bookings, chat, vehicles, verifications, notifications and feedback cues.

// @host      localhost:3000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
