package docs

import "github.com/swaggo/swag"

// Instance names served by httpSwagger.InstanceName, one per service mode.
const (
	InstanceAPI       = "api"
	InstanceRealtime  = "realtime"
	InstanceFunctions = "functions"
)

const apiTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {"post": {"tags": ["Auth"], "summary": "Register a rider or driver", "responses": {"201": {"description": "Created"}}}},
        "/auth/login": {"post": {"tags": ["Auth"], "summary": "Exchange credentials for a token pair", "responses": {"200": {"description": "OK"}}}},
        "/auth/refresh": {"post": {"tags": ["Auth"], "summary": "Rotate a refresh token", "responses": {"200": {"description": "OK"}}}},
        "/auth/logout": {"post": {"tags": ["Auth"], "summary": "Revoke a refresh token", "responses": {"204": {"description": "No Content"}}}},
        "/auth/me": {"get": {"tags": ["Auth"], "summary": "Current user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/rides": {
            "post": {"tags": ["Rides"], "summary": "Post a ride", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}},
            "get": {"tags": ["Rides"], "summary": "Search scheduled rides", "responses": {"200": {"description": "OK"}}}
        },
        "/rides/mine": {"get": {"tags": ["Rides"], "summary": "Rides posted by the driver", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/rides/{id}": {"get": {"tags": ["Rides"], "summary": "Ride by id", "responses": {"200": {"description": "OK"}}}},
        "/rides/{id}/cancel": {"post": {"tags": ["Rides"], "summary": "Cancel a ride", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/rides/{id}/complete": {"post": {"tags": ["Rides"], "summary": "Complete a ride", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/bookings": {
            "post": {"tags": ["Bookings"], "summary": "Request seats on a ride", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}},
            "get": {"tags": ["Bookings"], "summary": "Bookings of the caller", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/bookings/{id}": {"get": {"tags": ["Bookings"], "summary": "Booking by id", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/bookings/{id}/{transition}": {"post": {"tags": ["Bookings"], "summary": "confirm, reject, arrive, start, complete or cancel", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/bookings/{id}/rating": {"post": {"tags": ["Bookings"], "summary": "Rate the other party", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}},
        "/bookings/{id}/messages": {
            "post": {"tags": ["Chat"], "summary": "Send a booking message", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}},
            "get": {"tags": ["Chat"], "summary": "Booking chat history", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/listings/{id}/messages": {
            "post": {"tags": ["Chat"], "summary": "Send a listing message", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}},
            "get": {"tags": ["Chat"], "summary": "Listing chat history", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/vehicles": {
            "post": {"tags": ["Vehicles"], "summary": "Register a vehicle", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}},
            "get": {"tags": ["Vehicles"], "summary": "Vehicles of the driver", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/verifications": {"post": {"tags": ["Verification"], "summary": "Submit driver documents", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}},
        "/verifications/me": {"get": {"tags": ["Verification"], "summary": "Latest verification", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/notifications": {"get": {"tags": ["Notifications"], "summary": "Notifications of the caller", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/notifications/{id}/read": {"post": {"tags": ["Notifications"], "summary": "Mark one read", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}}}},
        "/notifications/read-all": {"post": {"tags": ["Notifications"], "summary": "Mark all read", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/me/push-token": {"put": {"tags": ["Notifications"], "summary": "Register the device push token", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}}}},
        "/feedback": {"get": {"tags": ["Feedback"], "summary": "Feedback categories", "responses": {"200": {"description": "OK"}}}},
        "/feedback/kinds/{kind}": {"get": {"tags": ["Feedback"], "summary": "Cue of a notification kind", "responses": {"200": {"description": "OK"}}}},
        "/feedback/{file}": {"get": {"tags": ["Feedback"], "summary": "Rendered WAV of a category", "produces": ["audio/wav"], "responses": {"200": {"description": "OK"}}}},
        "/health": {"get": {"tags": ["System"], "summary": "Health check", "responses": {"200": {"description": "OK"}, "503": {"description": "Degraded"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

const realtimeTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/ws/drivers/{driver_id}": {"get": {"tags": ["Realtime"], "summary": "Driver device socket", "responses": {"101": {"description": "Switching Protocols"}}}},
        "/ws/bookings/{booking_id}/track": {"get": {"tags": ["Realtime"], "summary": "Rider tracking socket", "responses": {"101": {"description": "Switching Protocols"}}}},
        "/ws/users/{user_id}/bookings": {"get": {"tags": ["Realtime"], "summary": "Booking updates of a rider", "responses": {"101": {"description": "Switching Protocols"}}}},
        "/health": {"get": {"tags": ["System"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}}
    }
}`

const functionsTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/functions/v1/{name}": {"post": {"tags": ["Functions"], "summary": "Invoke a named function", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "404": {"description": "Unknown function"}}}},
        "/health": {"get": {"tags": ["System"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"},
        "ServiceKey": {"type": "apiKey", "name": "X-Service-Key", "in": "header"}
    }
}`

var (
	SwaggerInfoAPI = &swag.Spec{
		Version:          "1.0",
		Host:             "localhost:3000",
		BasePath:         "/",
		Title:            "HpyRide API Service",
		Description:      "REST surface of HpyRide.",
		InfoInstanceName: InstanceAPI,
		SwaggerTemplate:  apiTemplate,
		LeftDelim:        "{{",
		RightDelim:       "}}",
	}

	SwaggerInfoRealtime = &swag.Spec{
		Version:          "1.0",
		Host:             "localhost:3001",
		BasePath:         "/",
		Title:            "HpyRide Realtime Service",
		Description:      "WebSocket gateway of HpyRide.",
		InfoInstanceName: InstanceRealtime,
		SwaggerTemplate:  realtimeTemplate,
		LeftDelim:        "{{",
		RightDelim:       "}}",
	}

	SwaggerInfoFunctions = &swag.Spec{
		Version:          "1.0",
		Host:             "localhost:3002",
		BasePath:         "/",
		Title:            "HpyRide Functions Service",
		Description:      "Named functions of HpyRide.",
		InfoInstanceName: InstanceFunctions,
		SwaggerTemplate:  functionsTemplate,
		LeftDelim:        "{{",
		RightDelim:       "}}",
	}
)

func init() {
	swag.Register(SwaggerInfoAPI.InstanceName(), SwaggerInfoAPI)
	swag.Register(SwaggerInfoRealtime.InstanceName(), SwaggerInfoRealtime)
	swag.Register(SwaggerInfoFunctions.InstanceName(), SwaggerInfoFunctions)
}
