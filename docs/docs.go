package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "TaskLoop API Documentation",
        "title": "TaskLoop API",
        "version": "1.0"
    },
    "host": "localhost:8080",
    "basePath": "/api/v1",
    "schemes": ["http"],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Health"],
                "summary": "Health Check",
                "description": "Check if server is running",
                "responses": {
                    "200": {
                        "description": "Server is healthy"
                    }
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "User Login",
                "description": "Login with email and password",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "in": "body",
                        "name": "credentials",
                        "description": "Login credentials",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Access and refresh tokens"
                    },
                    "401": {
                        "description": "Unauthorized"
                    }
                }
            }
        },
        "/tasks": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Create Task",
                "description": "Create a task, optionally with a recurrence rule",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {
                        "description": "Created task"
                    }
                }
            }
        },
        "/tasks/preview": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Preview Next Occurrence",
                "description": "Compute the next occurrence for a recurrence rule without saving",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {
                        "description": "Next occurrence"
                    }
                }
            }
        },
        "/tasks/{id}/complete": {
            "post": {
                "tags": ["Tasks"],
                "summary": "Complete Task",
                "description": "Mark a task completed and regenerate the next occurrence when due",
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {
                        "description": "Completed task, plus the regenerated occurrence if one was spawned"
                    }
                }
            }
        },
        "/analytics/dashboard": {
            "get": {
                "tags": ["Analytics"],
                "summary": "Team Dashboard",
                "description": "Aggregate task stats for a team (premium)",
                "produces": ["application/json"],
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {
                        "description": "Dashboard stats"
                    },
                    "402": {
                        "description": "Premium plan required"
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type 'Bearer' followed by a space and JWT token"
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "TaskLoop API",
	Description:      "TaskLoop API Documentation",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
