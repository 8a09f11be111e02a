package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	genqerrors "github.com/roach88/genq/internal/errors"
	"github.com/roach88/genq/internal/filter"
)

type errorResponse struct {
	Error  string   `json:"error"`
	Type   string   `json:"type"`
	Fields []string `json:"fields,omitempty"`
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := genqerrors.HTTPStatus(err)
	_ = c.Error(err)

	resp := errorResponse{Error: err.Error(), Type: string(genqerrors.GetType(err))}
	var gerr *genqerrors.Error
	if errors.As(err, &gerr) {
		resp.Fields = gerr.Fields
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, resp)
}

func (s *Server) handleSearch(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.writeError(c, genqerrors.Wrap(err, genqerrors.ErrTypeValidation, "failed to read request body"))
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	if err := s.validator.Validate(body); err != nil {
		s.writeError(c, err)
		return
	}

	var req filter.SearchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(c, genqerrors.Wrap(err, genqerrors.ErrTypeValidation, "invalid search request"))
		return
	}

	res, err := s.svc.Search(c.Request.Context(), c.Param("entity"), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.metrics.searchRecords.WithLabelValues(res.Type.Name()).Add(float64(len(res.Records)))

	out := s.svc.Serialize(res)
	c.Data(http.StatusOK, "application/json; charset=utf-8", out)
}

func (s *Server) handlePatch(c *gin.Context) {
	values, err := decodePatchBody(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	affected, err := s.svc.Patch(c.Request.Context(), c.Param("table"), c.Param("pk"), KeyValue(c.Param("value")), values)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.log.Debug("patched", "table", c.Param("table"), "affected", affected)
	c.Status(http.StatusNoContent)
}

func decodePatchBody(c *gin.Context) (map[string]any, error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, genqerrors.Wrap(err, genqerrors.ErrTypeValidation, "failed to read request body")
	}
	return DecodePatchValues(body)
}

type metaField struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	PrimaryKey bool   `json:"primaryKey,omitempty"`
}

type metaType struct {
	Name   string      `json:"name"`
	Fields []metaField `json:"fields"`
}

func (s *Server) handleMeta(c *gin.Context) {
	types := s.svc.Registry().Types()
	out := make([]metaType, 0, len(types))
	for _, rt := range types {
		fields := rt.UserFields()
		mt := metaType{Name: rt.Name(), Fields: make([]metaField, 0, len(fields))}
		for _, f := range fields {
			mt.Fields = append(mt.Fields, metaField{Name: f.Name, Type: string(f.Type), PrimaryKey: f.PrimaryKey})
		}
		out = append(out, mt)
	}
	c.JSON(http.StatusOK, out)
}
