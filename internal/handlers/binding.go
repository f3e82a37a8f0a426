package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fintelis/fintelis-api/internal/middleware"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/fintelis/fintelis-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BindNestedOrFlat decodes the request body into obj. A body wrapped under
// key (e.g. {"transaction": {...}}) is unwrapped first; anything else is
// decoded as is.
func BindNestedOrFlat(c *gin.Context, key string, obj interface{}) error {
	var bodyBytes []byte
	if c.Request.Body != nil {
		bodyBytes, _ = io.ReadAll(c.Request.Body)
	}
	// Restore body for subsequent reads
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	var nestedMap map[string]json.RawMessage
	if err := json.Unmarshal(bodyBytes, &nestedMap); err == nil {
		if val, ok := nestedMap[key]; ok {
			return json.Unmarshal(val, obj)
		}
	}
	return json.Unmarshal(bodyBytes, obj)
}

// bindBody decodes the body and answers 400 when it is malformed
func bindBody(c *gin.Context, key string, obj interface{}) bool {
	if err := BindNestedOrFlat(c, key, obj); err != nil {
		respondError(c, services.Invalid("body", "malformed JSON: "+err.Error()))
		return false
	}
	return true
}

// pathID parses a uuid path parameter, answering 404 when it is not one
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, &services.NotFoundError{Entity: name})
		return uuid.Nil, false
	}
	return id, true
}

// companyID returns the active company resolved by the middleware
func companyID(c *gin.Context) uuid.UUID {
	return middleware.GetCompanyID(c)
}

// listQuery reads the common pagination and sorting parameters
func listQuery(c *gin.Context) *repository.ListQuery {
	query := repository.NewListQuery()
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		query.Page = page
	}
	if perPage, err := strconv.Atoi(c.Query("per_page")); err == nil && perPage > 0 {
		query.PerPage = min(perPage, 100)
	}
	query.Search = c.Query("search_term")
	query.SortBy = c.Query("sort_by")
	query.SortDir = c.Query("sort_dir")
	for _, key := range []string{"status", "active", "entity"} {
		if value := c.Query(key); value != "" {
			query.Filters[key] = value
		}
	}
	return query
}

// optionalUUID parses an optional uuid query parameter into verr
func optionalUUID(c *gin.Context, name string, verr *services.ValidationError) *uuid.UUID {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		verr.Add(name, "must be a UUID")
		return nil
	}
	return &id
}

// optionalDate parses an optional YYYY-MM-DD query parameter into verr
func optionalDate(c *gin.Context, name string, verr *services.ValidationError) *civil.Date {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		verr.Add(name, "must be a date (YYYY-MM-DD)")
		return nil
	}
	return &d
}

// monthParam reads year and month query parameters, defaulting to the current month
func monthParam(c *gin.Context) (int, time.Month, error) {
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())
	verr := services.NewValidationError()
	if raw := c.Query("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			verr.Add("year", "must be a number")
		}
		year = v
	}
	if raw := c.Query("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			verr.Add("month", "must be a number")
		}
		month = v
	}
	return year, time.Month(month), verr.OrNil()
}
