// Package docs publica el documento OpenAPI de la API. Se mantiene a mano
// con el mismo formato que produce swag init; al cambiar un endpoint o un
// payload hay que actualizar docTemplate.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/users": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"identity"
				],
				"summary": "Registrar usuario (admin)",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/identity.registerUserRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/identity.userResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			},
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"identity"
				],
				"summary": "Listar usuarios por rol (admin)",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"type": "string",
						"description": "Rol",
						"name": "role",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/identity.userResponse"
							}
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				}
			}
		},
		"/patients": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"identity"
				],
				"summary": "Registrar paciente",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/identity.registerPatientRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/identity.patientResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			}
		},
		"/patients/{patientID}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"identity"
				],
				"summary": "Ver paciente",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"type": "string",
						"description": "Patient ID",
						"name": "patientID",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/identity.patientResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				}
			}
		},
		"/me": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"identity"
				],
				"summary": "Usuario actual",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/identity.userResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				}
			}
		},
		"/patients/{patientID}/records": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"records"
				],
				"summary": "Crear historia clínica",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"type": "string",
						"description": "Patient ID",
						"name": "patientID",
						"in": "path",
						"required": true
					},
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/records.createRecordRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/records.recordResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			},
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"records"
				],
				"summary": "Listar historias del paciente",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"type": "string",
						"description": "Patient ID",
						"name": "patientID",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/records.recordResponse"
							}
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				}
			}
		},
		"/records/{recordID}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"records"
				],
				"summary": "Ver historia clínica",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"type": "string",
						"description": "Record ID",
						"name": "recordID",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/records.recordResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				}
			}
		},
		"/prescriptions": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"prescriptions"
				],
				"summary": "Emitir receta",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/prescriptions.createPrescriptionRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/prescriptions.PrescriptionResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			}
		},
		"/prescriptions/verify": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"prescriptions"
				],
				"summary": "Verificar receta por código",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/prescriptions.verifyRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/prescriptions.PrescriptionResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"410": {
						"description": "Gone",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			}
		},
		"/prescriptions/{prescriptionID}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"prescriptions"
				],
				"summary": "Ver receta",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"type": "string",
						"description": "Prescription ID",
						"name": "prescriptionID",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/prescriptions.PrescriptionResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				}
			}
		},
		"/patients/{patientID}/prescriptions": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"prescriptions"
				],
				"summary": "Listar recetas del paciente",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"type": "string",
						"description": "Patient ID",
						"name": "patientID",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/prescriptions.PrescriptionResponse"
							}
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				}
			}
		},
		"/prescriptions/{prescriptionID}/dispense": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"dispense"
				],
				"summary": "Dispensar una línea",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"type": "string",
						"description": "Prescription ID",
						"name": "prescriptionID",
						"in": "path",
						"required": true
					},
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/dispense.dispenseLineRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/dispense.sessionResponse"
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"410": {
						"description": "Gone",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			},
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"dispense"
				],
				"summary": "Ver sesión de dispensación",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"type": "string",
						"description": "Prescription ID",
						"name": "prescriptionID",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/dispense.sessionResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				}
			},
			"delete": {
				"produces": [
					"application/json"
				],
				"tags": [
					"dispense"
				],
				"summary": "Descartar sesión",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"type": "string",
						"description": "Prescription ID",
						"name": "prescriptionID",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				}
			}
		},
		"/prescriptions/{prescriptionID}/dispense/complete": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"dispense"
				],
				"summary": "Completar dispensación",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"type": "string",
						"description": "Prescription ID",
						"name": "prescriptionID",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/dispense.recordResponse"
						}
					},
					"409": {
						"description": "Conflict",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"410": {
						"description": "Gone",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				}
			}
		},
		"/prescriptions/{prescriptionID}/dispense/record": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"dispense"
				],
				"summary": "Ver registro de dispensación",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"type": "string",
						"description": "Prescription ID",
						"name": "prescriptionID",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/dispense.recordResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				}
			}
		},
		"/me/dispensations": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"dispense"
				],
				"summary": "Mis dispensaciones (farmacia)",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/dispense.recordResponse"
							}
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				}
			}
		},
		"/pharmacies/{pharmacyID}/dispensations": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"dispense"
				],
				"summary": "Dispensaciones de una farmacia",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"type": "string",
						"description": "Pharmacy ID",
						"name": "pharmacyID",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/dispense.recordResponse"
							}
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				}
			}
		},
		"/audit": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"audit"
				],
				"summary": "Consultar auditoría",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"type": "string",
						"description": "prescription|dispense|access",
						"name": "type",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Rol del actor",
						"name": "role",
						"in": "query"
					},
					{
						"type": "boolean",
						"description": "Solo marcados",
						"name": "flagged",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Búsqueda",
						"name": "q",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Máximo",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/audit.recordResponse"
							}
						}
					},
					"400": {
						"description": "Bad Request",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				}
			}
		},
		"/audit/summary": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"audit"
				],
				"summary": "Resumen de auditoría",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/audit.Summary"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				}
			}
		},
		"/audit/{auditID}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"audit"
				],
				"summary": "Ver registro de auditoría",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"type": "string",
						"description": "Audit ID",
						"name": "auditID",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/audit.recordResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				}
			}
		},
		"/audit/{auditID}/flag": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"audit"
				],
				"summary": "Marcar registro",
				"parameters": [
					{
						"type": "string",
						"description": "Solo en modo dev, ID de usuario",
						"name": "X-Debug-User-ID",
						"in": "header"
					},
					{
						"type": "string",
						"description": "Audit ID",
						"name": "auditID",
						"in": "path",
						"required": true
					},
					{
						"description": "Payload",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/audit.flagRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/audit.recordResponse"
						}
					},
					"403": {
						"description": "Forbidden",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					},
					"404": {
						"description": "Not Found",
						"schema": {
							"$ref": "#/definitions/httpjson.errorResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				]
			}
		}
	},
	"definitions": {
		"httpjson.errorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				},
				"kind": {
					"type": "string"
				}
			}
		},
		"identity.registerUserRequest": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"role": {
					"type": "string",
					"enum": [
						"patient",
						"doctor",
						"pharmacy",
						"admin",
						"auditor"
					]
				},
				"email": {
					"type": "string"
				},
				"phone_number": {
					"type": "string"
				},
				"national_id": {
					"type": "string"
				},
				"specialization": {
					"type": "string"
				},
				"hospital": {
					"type": "string"
				},
				"license_number": {
					"type": "string"
				},
				"address": {
					"type": "string"
				},
				"contact_person": {
					"type": "string"
				},
				"department": {
					"type": "string"
				},
				"access_level": {
					"type": "integer"
				}
			}
		},
		"identity.userResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"role": {
					"type": "string",
					"enum": [
						"patient",
						"doctor",
						"pharmacy",
						"admin",
						"auditor"
					]
				},
				"email": {
					"type": "string"
				},
				"phone_number": {
					"type": "string"
				},
				"national_id": {
					"type": "string"
				},
				"specialization": {
					"type": "string"
				},
				"hospital": {
					"type": "string"
				},
				"license_number": {
					"type": "string"
				},
				"address": {
					"type": "string"
				},
				"contact_person": {
					"type": "string"
				},
				"department": {
					"type": "string"
				},
				"access_level": {
					"type": "integer"
				},
				"created_at": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"identity.registerPatientRequest": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"phone_number": {
					"type": "string"
				},
				"national_id": {
					"type": "string"
				},
				"date_of_birth": {
					"type": "string"
				},
				"gender": {
					"type": "string",
					"enum": [
						"male",
						"female",
						"other"
					]
				},
				"blood_group": {
					"type": "string"
				},
				"emergency_contact": {
					"type": "string"
				},
				"allergies": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"chronic_conditions": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"health_card_id": {
					"type": "string"
				}
			}
		},
		"identity.patientResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"role": {
					"type": "string",
					"enum": [
						"patient",
						"doctor",
						"pharmacy",
						"admin",
						"auditor"
					]
				},
				"email": {
					"type": "string"
				},
				"phone_number": {
					"type": "string"
				},
				"national_id": {
					"type": "string"
				},
				"specialization": {
					"type": "string"
				},
				"hospital": {
					"type": "string"
				},
				"license_number": {
					"type": "string"
				},
				"address": {
					"type": "string"
				},
				"contact_person": {
					"type": "string"
				},
				"department": {
					"type": "string"
				},
				"access_level": {
					"type": "integer"
				},
				"created_at": {
					"type": "string",
					"format": "date-time"
				},
				"date_of_birth": {
					"type": "string"
				},
				"gender": {
					"type": "string"
				},
				"blood_group": {
					"type": "string"
				},
				"emergency_contact": {
					"type": "string"
				},
				"allergies": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"chronic_conditions": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"health_card_id": {
					"type": "string"
				}
			}
		},
		"records.createRecordRequest": {
			"type": "object",
			"properties": {
				"facility": {
					"type": "string"
				},
				"date": {
					"type": "string"
				},
				"diagnosis": {
					"type": "string"
				},
				"symptoms": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"notes": {
					"type": "string"
				},
				"follow_up_date": {
					"type": "string"
				},
				"attachments": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"records.recordResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"patient_id": {
					"type": "string"
				},
				"doctor_id": {
					"type": "string"
				},
				"facility": {
					"type": "string"
				},
				"date": {
					"type": "string",
					"format": "date-time"
				},
				"diagnosis": {
					"type": "string"
				},
				"symptoms": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"notes": {
					"type": "string"
				},
				"follow_up_date": {
					"type": "string",
					"format": "date-time"
				},
				"attachments": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"created_at": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"prescriptions.medicineDTO": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"dosage": {
					"type": "string"
				},
				"frequency": {
					"type": "string"
				},
				"duration": {
					"type": "string"
				},
				"notes": {
					"type": "string"
				}
			}
		},
		"prescriptions.createPrescriptionRequest": {
			"type": "object",
			"properties": {
				"patient_id": {
					"type": "string"
				},
				"facility": {
					"type": "string"
				},
				"issue_date": {
					"type": "string"
				},
				"expiry_date": {
					"type": "string"
				},
				"medicines": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/prescriptions.medicineDTO"
					}
				},
				"instructions": {
					"type": "string"
				}
			}
		},
		"prescriptions.verifyRequest": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				}
			}
		},
		"prescriptions.PrescriptionResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"patient_id": {
					"type": "string"
				},
				"doctor_id": {
					"type": "string"
				},
				"facility": {
					"type": "string"
				},
				"issue_date": {
					"type": "string",
					"format": "date-time"
				},
				"expiry_date": {
					"type": "string",
					"format": "date-time"
				},
				"medicines": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/prescriptions.medicineDTO"
					}
				},
				"instructions": {
					"type": "string"
				},
				"status": {
					"type": "string",
					"enum": [
						"active",
						"completed",
						"expired"
					]
				},
				"verification_code": {
					"type": "string"
				},
				"created_at": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"dispense.dispenseLineRequest": {
			"type": "object",
			"properties": {
				"medicine_index": {
					"type": "integer"
				},
				"quantity": {
					"type": "integer"
				},
				"batch_number": {
					"type": "string"
				}
			}
		},
		"dispense.lineResponse": {
			"type": "object",
			"properties": {
				"medicine_index": {
					"type": "integer"
				},
				"medicine_name": {
					"type": "string"
				},
				"quantity": {
					"type": "integer"
				},
				"batch_number": {
					"type": "string"
				},
				"dispensed_at": {
					"type": "string",
					"format": "date-time"
				}
			}
		},
		"dispense.sessionResponse": {
			"type": "object",
			"properties": {
				"prescription_id": {
					"type": "string"
				},
				"pharmacy_id": {
					"type": "string"
				},
				"lines": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/dispense.lineResponse"
					}
				},
				"pending": {
					"type": "array",
					"items": {
						"type": "integer"
					}
				},
				"status": {
					"type": "string"
				}
			}
		},
		"dispense.recordResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"prescription_id": {
					"type": "string"
				},
				"pharmacy_id": {
					"type": "string"
				},
				"dispensed_at": {
					"type": "string",
					"format": "date-time"
				},
				"lines": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/dispense.lineResponse"
					}
				},
				"verification_code": {
					"type": "string"
				},
				"status": {
					"type": "string"
				}
			}
		},
		"audit.recordResponse": {
			"type": "object",
			"properties": {
				"id": {
					"type": "integer"
				},
				"type": {
					"type": "string"
				},
				"entity_id": {
					"type": "string"
				},
				"actor_id": {
					"type": "string"
				},
				"actor_role": {
					"type": "string"
				},
				"action": {
					"type": "string"
				},
				"timestamp": {
					"type": "string",
					"format": "date-time"
				},
				"details": {
					"type": "object",
					"additionalProperties": true
				},
				"flagged": {
					"type": "boolean"
				},
				"reason": {
					"type": "string"
				}
			}
		},
		"audit.flagRequest": {
			"type": "object",
			"properties": {
				"reason": {
					"type": "string"
				}
			}
		},
		"audit.Summary": {
			"type": "object",
			"properties": {
				"total": {
					"type": "integer"
				},
				"flagged": {
					"type": "integer"
				},
				"by_type": {
					"type": "object",
					"additionalProperties": {
						"type": "integer"
					}
				}
			}
		}
	}
}`

// SwaggerInfo se puede ajustar en runtime (host, base path).
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Clinical Record & Prescription API",
	Description:      "Historias clínicas, recetas con código de verificación, dispensación y auditoría.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
