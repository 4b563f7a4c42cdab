// internal/handlers/model_routes.go
//
// A document mapping and routing layer for the jam-build data services
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of propsodm.
// propsodm is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// propsodm is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with propsodm.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/propsodm/internal/middleware"
	"github.com/localnerve/propsodm/internal/models"
	"github.com/localnerve/propsodm/internal/services"
	"github.com/localnerve/propsodm/internal/types"
	"github.com/localnerve/propsodm/internal/utils"
	"github.com/sirupsen/logrus"
)

// ModelHandler serves the instances of one model over REST. Request and
// response bodies use the JSON context selected by middleware.JSONContext.
type ModelHandler struct {
	Repo *services.Repository
}

// NewModelHandler creates a handler for the repository's model
func NewModelHandler(repo *services.Repository) *ModelHandler {
	return &ModelHandler{Repo: repo}
}

// Register binds the model routes under path, leaving out the operations
// the model suppresses
func (h *ModelHandler) Register(router fiber.Router, path string) fiber.Router {
	group := router.Group(path)
	m := h.Repo.Model

	if !m.Suppressed(models.OpGetAll) {
		group.Get("/", h.GetAll)
	}
	if !m.Suppressed(models.OpGet) {
		group.Get("/:id", h.Get)
	}
	if !m.Suppressed(models.OpCreate) {
		group.Post("/", h.Create)
	}
	if !m.Suppressed(models.OpUpdate) {
		group.Put("/:id", h.Update)
	}
	if !m.Suppressed(models.OpDelete) {
		group.Delete("/:id", h.Delete)
	}
	return group
}

// Get handles GET /api/users/:id
// @Summary Get a user
// @Description Get one user by id. The projection query parameter selects JSON fields.
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Param projection query string false "Extended JSON projection, e.g. {\"fullName\":1}"
// @Param X-Json-Context header string false "JSON context"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /users/{id} [get]
func (h *ModelHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	projection, cerr := parseDocumentQuery(c, "projection", CodeInvalidProjection)
	if cerr != nil {
		return utils.CustomErrorResponse(c, cerr)
	}

	inst, err := h.Repo.Get(c.UserContext(), id, nil)
	if err != nil {
		return h.fail(c, err, models.OpGet)
	}
	return h.respond(c, fiber.StatusOK, inst, projection)
}

// GetAll handles GET /api/users
// @Summary List users
// @Description List users matching a filter given in property names
// @Tags Users
// @Produce json
// @Param where query string false "Extended JSON filter, e.g. {\"name\":\"Ada\"}"
// @Param projection query string false "Extended JSON projection of JSON fields"
// @Param sort query string false "Sort object or array of objects, e.g. [{\"name\":1}]"
// @Param skip query int false "Documents to skip"
// @Param limit query int false "Maximum documents to return"
// @Param X-Json-Context header string false "JSON context"
// @Success 200 {array} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /users [get]
func (h *ModelHandler) GetAll(c *fiber.Ctx) error {
	where, cerr := parseDocumentQuery(c, "where", CodeInvalidWhere)
	if cerr != nil {
		return utils.CustomErrorResponse(c, cerr)
	}
	projection, cerr := parseDocumentQuery(c, "projection", CodeInvalidProjection)
	if cerr != nil {
		return utils.CustomErrorResponse(c, cerr)
	}
	sort, cerr := parseSort(c)
	if cerr != nil {
		return utils.CustomErrorResponse(c, cerr)
	}
	skip, limit, cerr := parsePaging(c)
	if cerr != nil {
		return utils.CustomErrorResponse(c, cerr)
	}

	found, err := h.Repo.GetAll(c.UserContext(), where, nil, services.FindOptions{Sort: sort, Skip: skip, Limit: limit})
	if err != nil {
		return h.fail(c, err, models.OpGetAll)
	}

	jsonCtx := middleware.JSONContextFrom(c)
	if projection != nil {
		jsonCtx = jsonCtx.WithProjection(projection)
	}
	out := make([]map[string]any, 0, len(found))
	for _, inst := range found {
		doc, err := inst.ToJSON(jsonCtx)
		if err != nil {
			return h.fail(c, err, models.OpGetAll)
		}
		out = append(out, doc)
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

// Create handles POST /api/users
// @Summary Create a user
// @Description Create a user from its JSON representation
// @Tags Users
// @Accept json
// @Produce json
// @Param body body object true "User"
// @Param X-Json-Context header string false "JSON context"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /users [post]
func (h *ModelHandler) Create(c *fiber.Ctx) error {
	body, cerr := parseBody(c)
	if cerr != nil {
		return utils.CustomErrorResponse(c, cerr)
	}

	jsonCtx := middleware.JSONContextFrom(c)
	inst, err := h.Repo.Model.FromJSON(body, jsonCtx)
	if err != nil {
		return h.fail(c, err, models.OpCreate)
	}
	if _, err := h.Repo.Create(c.UserContext(), inst); err != nil {
		return h.fail(c, err, models.OpCreate)
	}

	logrus.WithFields(logrus.Fields{
		"model":  h.Repo.Model.Name(),
		"fields": sortedKeys(body),
	}).Debug("Created from request")
	return h.respond(c, fiber.StatusCreated, inst, nil)
}

// Update handles PUT /api/users/:id
// @Summary Update a user
// @Description Write the given JSON fields of a user. A null value clears the field.
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param body body object true "Fields to write"
// @Param X-Json-Context header string false "JSON context"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /users/{id} [put]
func (h *ModelHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	body, cerr := parseBody(c)
	if cerr != nil {
		return utils.CustomErrorResponse(c, cerr)
	}

	inst, err := h.Repo.Patch(c.UserContext(), id, body, middleware.JSONContextFrom(c))
	if err != nil {
		return h.fail(c, err, models.OpUpdate)
	}
	return h.respond(c, fiber.StatusOK, inst, nil)
}

// Delete handles DELETE /api/users/:id
// @Summary Delete a user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /users/{id} [delete]
func (h *ModelHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Repo.Remove(c.UserContext(), id); err != nil {
		return h.fail(c, err, models.OpDelete)
	}
	return utils.MutationSuccessResponse(c, id)
}

func (h *ModelHandler) respond(c *fiber.Ctx, status int, inst *models.Instance, projection map[string]any) error {
	jsonCtx := middleware.JSONContextFrom(c)
	if projection != nil {
		jsonCtx = jsonCtx.WithProjection(projection)
	}
	out, err := inst.ToJSON(jsonCtx)
	if err != nil {
		return h.fail(c, err, "toJSON")
	}
	return c.Status(status).JSON(out)
}

// fail maps an error to its response. Input mapping errors and unsupported
// filters are the client's fault; everything else is a 500.
func (h *ModelHandler) fail(c *fiber.Ctx, err error, op string) error {
	name := h.Repo.Model.Name()
	var (
		me *models.MappingError
		de *models.DefinitionError
	)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFoundResponse(c, fmt.Sprintf("%s '%s' not found", name, c.Params("id")))
	case errors.Is(err, services.ErrUnsupportedFilter):
		return utils.CustomErrorResponse(c, types.NewBadRequest(CodeInvalidWhere, "Unsupported where parameter", err))
	case errors.As(err, &de):
	case errors.As(err, &me) && op != "toJSON":
		return utils.CustomErrorResponse(c, &types.CustomError{
			Status:  fiber.StatusBadRequest,
			Code:    "mapping_error",
			Message: fmt.Sprintf("Invalid %s", name),
			Type:    "data.validation." + op,
			Details: err.Error(),
		})
	}

	logrus.WithError(err).WithFields(logrus.Fields{
		"model": name,
		"op":    op,
	}).Error("Request failed")
	return utils.ErrorResponse(c, err.Error(), fiber.StatusInternalServerError, "data."+op)
}
