package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/model"
	"github.com/sakif/travel-journal/internal/service"
)

// decodeJSON decodes the request body into dst.
//
// Unknown fields are rejected, and so is anything after the first JSON
// value: a body that doesn't match the endpoint's schema never reaches a
// service. Every failure is a validation error (400), except a body over
// the MaxBodySize limit, which is 413.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &maxErr):
			return apperror.TooLarge(fmt.Sprintf("request body must be at most %d bytes", maxErr.Limit))
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is required")
		case errors.As(err, &syntaxErr):
			return apperror.ValidationFailed("body",
				fmt.Sprintf("malformed JSON at position %d", syntaxErr.Offset))
		case errors.As(err, &typeErr):
			field := typeErr.Field
			if field == "" {
				field = "body"
			}
			return apperror.ValidationFailed(field, fmt.Sprintf("%s must be a %s", field, typeErr.Type))
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return apperror.ValidationFailed(field, fmt.Sprintf("unknown field %q", field))
		default:
			return apperror.ValidationFailed("body", "invalid JSON body: "+err.Error())
		}
	}

	if dec.More() {
		return apperror.ValidationFailed("body", "request body must contain a single JSON object")
	}
	return nil
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be an integer")
	}
	return n, nil
}

// =========================================================================
// REQUEST SCHEMAS
// =========================================================================
//
// One struct per endpoint body. JSON keys match what the web client sends
// (snake_case). Services never see these types; each has a method that
// builds the service input.

type registerRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Country  string `json:"country"`
}

func (req registerRequest) input() service.RegisterInput {
	return service.RegisterInput{
		Login:    req.Login,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Country:  req.Country,
	}
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type routePointRequest struct {
	City        string      `json:"city"`
	Order       *int        `json:"order"`
	VisitDate   *model.Date `json:"visit_date"`
	Description *string     `json:"description"`
}

func routePointInputs(in []routePointRequest) []service.RoutePointInput {
	out := make([]service.RoutePointInput, len(in))
	for i, rp := range in {
		out[i] = service.RoutePointInput{
			City:        rp.City,
			Order:       rp.Order,
			VisitDate:   rp.VisitDate,
			Description: rp.Description,
		}
	}
	return out
}

type createTravelRequest struct {
	Title       string              `json:"title"`
	Description *string             `json:"description"`
	Country     string              `json:"country"`
	Type        string              `json:"type"`
	IsPublic    *bool               `json:"is_public"`
	StartDate   *model.Date         `json:"start_date"`
	EndDate     *model.Date         `json:"end_date"`
	Budget      *int64              `json:"budget"`
	RoutePoints []routePointRequest `json:"route_points"`
}

func (req createTravelRequest) input() service.TravelInput {
	return service.TravelInput{
		Title:       req.Title,
		Description: req.Description,
		Country:     req.Country,
		Type:        model.TravelType(strings.TrimSpace(req.Type)),
		IsPublic:    req.IsPublic,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
		RoutePoints: routePointInputs(req.RoutePoints),
	}
}

// updateTravelRequest uses model.Optional so that an absent key, an explicit
// null and a value are three different things.
type updateTravelRequest struct {
	Title       model.Optional[string]              `json:"title"`
	Description model.Optional[string]              `json:"description"`
	Country     model.Optional[string]              `json:"country"`
	Type        model.Optional[model.TravelType]    `json:"type"`
	IsPublic    model.Optional[bool]                `json:"is_public"`
	StartDate   model.Optional[model.Date]          `json:"start_date"`
	EndDate     model.Optional[model.Date]          `json:"end_date"`
	Budget      model.Optional[int64]               `json:"budget"`
	RoutePoints model.Optional[[]routePointRequest] `json:"route_points"`
}

func (req updateTravelRequest) patch() service.TravelPatch {
	p := service.TravelPatch{
		Title:       req.Title,
		Description: req.Description,
		Country:     req.Country,
		Type:        req.Type,
		IsPublic:    req.IsPublic,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
	}
	if req.RoutePoints.Set {
		// null and [] both clear the route.
		p.RoutePoints = model.Some(routePointInputs(req.RoutePoints.Value))
	}
	return p
}

type profileRequest struct {
	Name      *string `json:"name"`
	Bio       *string `json:"bio"`
	Country   *string `json:"country"`
	AvatarURL *string `json:"avatar_url"`
}

func (req profileRequest) input() service.ProfileInput {
	return service.ProfileInput{
		Name:      req.Name,
		Bio:       req.Bio,
		Country:   req.Country,
		AvatarURL: req.AvatarURL,
	}
}
