package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kassa-app/kassa-backend/docs"
	"github.com/labstack/echo/v4"
	"github.com/swaggo/swag"
)

// swag generates Swagger 2.0; clients want OpenAPI 3. ServeOpenAPI3Spec
// converts on the fly: definitions move under components/schemas, $refs
// are rewritten, and non-body parameters gain a schema wrapper.
func ServeOpenAPI3Spec(c echo.Context) error {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to read swagger doc"})
	}

	var v2 map[string]interface{}
	if err := json.Unmarshal([]byte(doc), &v2); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to parse swagger doc"})
	}

	components := map[string]interface{}{}
	if schemes, ok := v2["securityDefinitions"]; ok {
		components["securitySchemes"] = schemes
	}
	if defs, ok := v2["definitions"]; ok {
		components["schemas"] = rewriteV2Node(defs)
	}

	paths, _ := rewriteV2Node(v2["paths"]).(map[string]interface{})
	info, _ := v2["info"].(map[string]interface{})

	spec := map[string]interface{}{
		"openapi": "3.0.3",
		"info":    info,
		"servers": []map[string]string{
			{"url": "http://localhost:8080/api/v1", "description": "Local development"},
			{"url": "https://api.kassa.app/api/v1", "description": "Production"},
		},
		"paths":      paths,
		"components": components,
	}

	return c.JSON(http.StatusOK, spec)
}

// rewriteV2Node walks the spec tree, fixing $ref targets and upgrading
// parameter objects as it goes.
func rewriteV2Node(node interface{}) interface{} {
	switch v := node.(type) {
	case map[string]interface{}:
		if isV2Parameter(v) {
			return upgradeParameter(v)
		}
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			if key == "$ref" {
				if ref, ok := value.(string); ok {
					out[key] = strings.Replace(ref, "#/definitions/", "#/components/schemas/", 1)
					continue
				}
			}
			out[key] = rewriteV2Node(value)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = rewriteV2Node(item)
		}
		return out
	default:
		return node
	}
}

func isV2Parameter(m map[string]interface{}) bool {
	_, hasIn := m["in"]
	_, hasName := m["name"]
	return hasIn && hasName
}

// upgradeParameter moves the inline type fields of a Swagger 2.0
// parameter into an OpenAPI 3 schema object. Body parameters are left
// alone; they map to requestBody and the UI tolerates the 2.0 shape.
func upgradeParameter(param map[string]interface{}) map[string]interface{} {
	if param["in"] == "body" {
		return param
	}

	out := map[string]interface{}{}
	for _, field := range []string{"name", "in", "description", "required"} {
		if val, ok := param[field]; ok {
			out[field] = val
		}
	}

	schema := map[string]interface{}{}
	for _, field := range []string{"type", "format", "enum", "default", "minimum", "maximum", "items"} {
		if val, ok := param[field]; ok {
			if field == "items" {
				schema[field] = rewriteV2Node(val)
			} else {
				schema[field] = val
			}
		}
	}
	if len(schema) > 0 {
		out["schema"] = schema
	}

	return out
}
