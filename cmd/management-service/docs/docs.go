// Package docs holds the OpenAPI document served at /swagger. Regenerate
// with `swag init -g cmd/management-service/main.go -o cmd/management-service/docs`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/rules/automation": {
            "get": {
                "description": "Get every automation rule, enabled or not, in evaluation order",
                "produces": ["application/json"],
                "tags": ["automation-rules"],
                "summary": "List automation rules",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/automation.AutomationRule"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["automation-rules"],
                "summary": "Create an automation rule",
                "parameters": [
                    {"description": "Rule data", "name": "rule", "in": "body", "required": true, "schema": {"$ref": "#/definitions/management.CreateRuleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/automation.AutomationRule"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/rules/automation/expression-examples": {
            "get": {
                "description": "Named CEL expressions that pass rule validation, for use as the expression field",
                "produces": ["application/json"],
                "tags": ["automation-rules"],
                "summary": "List example rule expressions",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object",
                            "additionalProperties": {"type": "string"}
                        }
                    }
                }
            }
        },
        "/rules/automation/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["automation-rules"],
                "summary": "Get an automation rule by ID",
                "parameters": [{"type": "string", "description": "Rule ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/automation.AutomationRule"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["automation-rules"],
                "summary": "Update an automation rule",
                "parameters": [
                    {"type": "string", "description": "Rule ID", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "rule", "in": "body", "required": true, "schema": {"$ref": "#/definitions/management.UpdateRuleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/automation.AutomationRule"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["automation-rules"],
                "summary": "Delete an automation rule",
                "parameters": [{"type": "string", "description": "Rule ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/rules/automation/{id}/enabled": {
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["automation-rules"],
                "summary": "Enable or disable an automation rule",
                "parameters": [
                    {"type": "string", "description": "Rule ID", "name": "id", "in": "path", "required": true},
                    {"description": "New state", "name": "state", "in": "body", "required": true, "schema": {"$ref": "#/definitions/management.SetEnabledRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/automation.AutomationRule"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/rules/automation/{id}/versions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["automation-rules"],
                "summary": "Get rule version history",
                "parameters": [{"type": "string", "description": "Rule ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/management.RuleVersion"}}}
                }
            }
        },
        "/rules/automation/{id}/audit": {
            "get": {
                "produces": ["application/json"],
                "tags": ["automation-rules"],
                "summary": "Get audit logs for a rule",
                "parameters": [
                    {"type": "string", "description": "Rule ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "default": 100, "description": "Maximum number of logs to return (1-1000)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/management.AuditLog"}}}
                }
            }
        },
        "/audit/logs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["audit"],
                "summary": "Get audit logs",
                "parameters": [
                    {"type": "string", "description": "Filter by rule ID", "name": "rule_id", "in": "query"},
                    {"type": "string", "description": "Filter by rule type", "name": "rule_type", "in": "query"},
                    {"type": "integer", "default": 100, "description": "Maximum number of logs to return (1-1000)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/management.AuditLog"}}}
                }
            }
        },
        "/customers": {
            "get": {
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "List customers",
                "parameters": [
                    {"type": "string", "description": "Only customers carrying this tag", "name": "tag", "in": "query"},
                    {"type": "string", "description": "Case-insensitive match on name or phone", "name": "search", "in": "query"},
                    {"type": "integer", "default": 100, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/customers.ListResult"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Create a customer",
                "parameters": [
                    {"description": "Customer data", "name": "customer", "in": "body", "required": true, "schema": {"$ref": "#/definitions/customers.CreateCustomerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Customer"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/customers/{id}/tags": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Add a tag to a customer",
                "parameters": [
                    {"type": "string", "description": "Customer ID", "name": "id", "in": "path", "required": true},
                    {"description": "Tag to add", "name": "tag", "in": "body", "required": true, "schema": {"$ref": "#/definitions/customers.TagRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Customer"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/activity": {
            "get": {
                "produces": ["application/json"],
                "tags": ["activity"],
                "summary": "List activity feed",
                "parameters": [
                    {"type": "string", "description": "Filter by entity type", "name": "entity_type", "in": "query"},
                    {"type": "string", "description": "Filter by entity ID", "name": "entity_id", "in": "query"},
                    {"type": "integer", "default": 100, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/activity.ListResult"}}
                }
            }
        }
    },
    "definitions": {
        "automation.RuleCondition": {
            "type": "object",
            "properties": {
                "field": {"type": "string", "example": "totalAmount"},
                "operator": {"type": "string", "example": "GREATER_THAN"},
                "value": {"type": "number", "example": 2000000}
            }
        },
        "automation.RuleAction": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "example": "ADD_CUSTOMER_TAG"},
                "value": {"type": "string", "example": "VIP"}
            }
        },
        "automation.AutomationRule": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "trigger": {"type": "string", "example": "ORDER_CREATED"},
                "conditions": {"type": "array", "items": {"$ref": "#/definitions/automation.RuleCondition"}},
                "actions": {"type": "array", "items": {"$ref": "#/definitions/automation.RuleAction"}},
                "is_enabled": {"type": "boolean"},
                "position": {"type": "integer"},
                "expression": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "management.CreateRuleRequest": {
            "type": "object",
            "required": ["actions", "name", "trigger"],
            "properties": {
                "name": {"type": "string"},
                "trigger": {"type": "string"},
                "conditions": {"type": "array", "items": {"$ref": "#/definitions/automation.RuleCondition"}},
                "actions": {"type": "array", "items": {"$ref": "#/definitions/automation.RuleAction"}},
                "expression": {"type": "string"},
                "is_enabled": {"type": "boolean"}
            }
        },
        "management.UpdateRuleRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "trigger": {"type": "string"},
                "conditions": {"type": "array", "items": {"$ref": "#/definitions/automation.RuleCondition"}},
                "actions": {"type": "array", "items": {"$ref": "#/definitions/automation.RuleAction"}},
                "expression": {"type": "string"},
                "is_enabled": {"type": "boolean"},
                "position": {"type": "integer"}
            }
        },
        "management.SetEnabledRequest": {
            "type": "object",
            "required": ["is_enabled"],
            "properties": {
                "is_enabled": {"type": "boolean"}
            }
        },
        "management.RuleVersion": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "rule_id": {"type": "string"},
                "rule_type": {"type": "string"},
                "rule_data": {"type": "string"},
                "version": {"type": "integer"},
                "changed_by": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "management.AuditLog": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "rule_id": {"type": "string"},
                "rule_type": {"type": "string"},
                "action": {"type": "string"},
                "old_value": {"type": "object"},
                "new_value": {"type": "object"},
                "changed_by": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "models.Customer": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "phone": {"type": "string"},
                "email": {"type": "string"},
                "address": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "customers.CreateCustomerRequest": {
            "type": "object",
            "required": ["name", "phone"],
            "properties": {
                "name": {"type": "string"},
                "phone": {"type": "string"},
                "email": {"type": "string"},
                "address": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "customers.TagRequest": {
            "type": "object",
            "required": ["tag"],
            "properties": {
                "tag": {"type": "string"}
            }
        },
        "customers.ListResult": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/models.Customer"}},
                "total": {"type": "integer"},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"}
            }
        },
        "activity.ListResult": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"type": "object"}},
                "total": {"type": "integer"},
                "limit": {"type": "integer"},
                "offset": {"type": "integer"}
            }
        },
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "error_code": {"type": "string"},
                "details": {"type": "object"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "RetailOps Management Service API",
	Description:      "REST API for automation rules, customers and the activity feed",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
