package docs

// @title           HpyRide Realtime Service
// @version         1.0
// @description     WebSocket gateway: driver location broadcast, ride tracking and booking updates. Tokens may be passed as the access_token query parameter.

// @host      localhost:3001
// @BasePath  /
