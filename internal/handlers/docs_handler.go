package handlers

import (
	"sort"

	"github.com/gofiber/fiber/v2"
)

type routeDoc struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Docs lists the registered API routes.
func Docs(c *fiber.Ctx) error {
	seen := make(map[routeDoc]struct{})
	docs := make([]routeDoc, 0)
	for _, r := range c.App().GetRoutes(true) {
		if r.Method == fiber.MethodHead || r.Method == fiber.MethodOptions {
			continue
		}
		d := routeDoc{Method: r.Method, Path: r.Path}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Path == docs[j].Path {
			return docs[i].Method < docs[j].Method
		}
		return docs[i].Path < docs[j].Path
	})
	return c.JSON(fiber.Map{"routes": docs})
}
