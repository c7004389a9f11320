package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/km-arc/galanthus/framework/controller"
	"github.com/km-arc/galanthus/framework/db/tablegateway"
	gohttp "github.com/km-arc/galanthus/framework/http"
	"github.com/km-arc/galanthus/framework/http/validation"
)

// Cities lists and adds rows of the cities table.
//
//	/cities                 HTML list
//	/cities/json            the same rows as JSON
//	/cities?min=200000      only cities with at least that population
//	POST /cities/add        add the city in the JSON body
type Cities struct {
	controller.Base
	cities *tablegateway.TableGateway
}

func NewCities(cities *tablegateway.TableGateway) *Cities {
	return &Cities{cities: cities}
}

var filterRules = validation.Rules{"min": "sometimes|integer|gte:0"}

var cityRules = validation.Rules{
	"name":       "required|max:64",
	"population": "required|integer|gte:0",
}

// newCity is the body of POST /cities/add.
type newCity struct {
	Name       string `json:"name"`
	Population *int   `json:"population"`
}

func (c *Cities) Execute(req *gohttp.Request, res *gohttp.Response) error {
	if req.Action() == "add" {
		return c.add(req, res)
	}
	if errs := req.Validate(filterRules); errs.Has() {
		res.SetStatus(http.StatusUnprocessableEntity).SetParams(errs.Params())
		return c.enableJSON(res)
	}

	rs, err := c.fetch(req)
	if err != nil {
		return err
	}
	c.Logger().Debug("cities fetched", zap.Int("count", rs.Count()), zap.String("request_id", req.ID()))

	res.SetParam("cities", rs.Rows())
	if req.Action() != "json" {
		return nil
	}
	return c.enableJSON(res)
}

func (c *Cities) fetch(req *gohttp.Request) (*tablegateway.Rowset, error) {
	if !req.Has("min") {
		return c.cities.FetchAll(req.Context(), "name ASC")
	}
	limit, _ := strconv.Atoi(req.Query("min"))
	return c.cities.FetchWhere(req.Context(), "population >= ?", limit)
}

func (c *Cities) add(req *gohttp.Request, res *gohttp.Response) error {
	switch {
	case req.Raw().Method != http.MethodPost:
		res.Header().Set("Allow", http.MethodPost)
		return c.reject(res, http.StatusMethodNotAllowed, "method", "Use POST to add a city.")
	case !req.IsJSON():
		return c.reject(res, http.StatusUnsupportedMediaType, "body", "The body must be JSON.")
	}

	var in newCity
	if err := req.Bind(&in); err != nil {
		if errors.Is(err, gohttp.ErrMalformedBody) {
			return c.reject(res, http.StatusUnprocessableEntity, "body", err.Error())
		}
		return err
	}
	data := map[string]string{"name": in.Name}
	if in.Population != nil {
		data["population"] = strconv.Itoa(*in.Population)
	}
	if errs := validation.Check(data, cityRules); errs.Has() {
		res.SetStatus(http.StatusUnprocessableEntity).SetParams(errs.Params())
		return c.enableJSON(res)
	}

	row := tablegateway.Row{"name": in.Name, "population": *in.Population}
	if _, err := c.cities.Insert(req.Context(), row); err != nil {
		return err
	}
	c.Logger().Info("city added", zap.String("name", in.Name), zap.String("request_id", req.ID()))

	res.SetStatus(http.StatusCreated).SetParam("city", row)
	return c.enableJSON(res)
}

// reject answers with status and a single JSON error for field.
func (c *Cities) reject(res *gohttp.Response, status int, field, msg string) error {
	res.SetStatus(status).SetParam("errors", map[string][]string{field: {msg}})
	return c.enableJSON(res)
}

func (c *Cities) enableJSON(res *gohttp.Response) error {
	j, err := c.JSON()
	if err != nil {
		return err
	}
	return j.Enable(res)
}
