package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-web/internal/apiclient"
	"github.com/iliyamo/villa-web/internal/middleware"
	"github.com/iliyamo/villa-web/internal/service"
)

const (
	maxPhotos     = 10
	maxPhotoBytes = 5 << 20
)

// OwnerHandler serves host listing management.  Routes require the host
// role.
type OwnerHandler struct {
	Villas *service.VillaService
}

func NewOwnerHandler(villas *service.VillaService) *OwnerHandler {
	if villas == nil {
		panic("nil villa service passed to NewOwnerHandler")
	}
	return &OwnerHandler{Villas: villas}
}

type capacityReq struct {
	Guests int `json:"guests"`
}

type unavailabilityReq struct {
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
}

// MyListings: GET /api/host/my-listings
func (h *OwnerHandler) MyListings(c echo.Context) error {
	villas, err := h.Villas.MyListings(c.Request().Context(), middleware.StoreFrom(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"villas": nonNil(villas)})
}

// CreateVilla: POST /api/host/villas (multipart)
func (h *OwnerHandler) CreateVilla(c echo.Context) error {
	f, err := villaForm(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	v, err := h.Villas.Create(c.Request().Context(), middleware.StoreFrom(c), f)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// UpdateVilla: PUT /api/host/villas/:id (multipart).  Only submitted fields
// change.
func (h *OwnerHandler) UpdateVilla(c echo.Context) error {
	f, err := villaForm(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	v, err := h.Villas.Update(c.Request().Context(), middleware.StoreFrom(c), c.Param("id"), f)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// UpdateCapacity: PATCH /api/host/villas/:id {guests}
func (h *OwnerHandler) UpdateCapacity(c echo.Context) error {
	var req capacityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	v, err := h.Villas.UpdateCapacity(c.Request().Context(), middleware.StoreFrom(c), c.Param("id"), req.Guests)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// DeleteVilla: DELETE /api/host/villas/:id
func (h *OwnerHandler) DeleteVilla(c echo.Context) error {
	if err := h.Villas.Delete(c.Request().Context(), middleware.StoreFrom(c), c.Param("id")); err != nil {
		return respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddUnavailability: POST /api/host/villas/:id/unavailability
func (h *OwnerHandler) AddUnavailability(c echo.Context) error {
	var req unavailabilityReq
	if err := bindValid(c, &req); err != nil {
		return respond(c, err)
	}
	from, err1 := parseDay(req.StartDate)
	to, err2 := parseDay(req.EndDate)
	if err1 != nil || err2 != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Please select a valid date range."})
	}
	v, err := h.Villas.AddUnavailability(c.Request().Context(), middleware.StoreFrom(c), c.Param("id"), from, to)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, villaDetail(v))
}

// villaForm reads the multipart listing form.  Absent fields stay nil.
func villaForm(c echo.Context) (service.VillaForm, error) {
	var f service.VillaForm
	mf, err := c.MultipartForm()
	if err != nil {
		return f, fmt.Errorf("expected a multipart form")
	}
	val := func(k string) (string, bool) {
		vs, ok := mf.Value[k]
		if !ok || len(vs) == 0 {
			return "", false
		}
		return strings.TrimSpace(vs[0]), true
	}
	str := func(k string) *string {
		if v, ok := val(k); ok {
			return &v
		}
		return nil
	}
	f.Title, f.Description, f.Address = str("title"), str("description"), str("address")

	ints := map[string]**int{"bedrooms": &f.Bedrooms, "bathrooms": &f.Bathrooms, "guests": &f.Guests}
	for k, dst := range ints {
		if v, ok := val(k); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return f, fmt.Errorf("%s must be a whole number", k)
			}
			*dst = &n
		}
	}
	floats := map[string]**float64{"price": &f.Price, "area": &f.Area}
	for k, dst := range floats {
		if v, ok := val(k); ok && v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return f, fmt.Errorf("%s must be a number", k)
			}
			*dst = &n
		}
	}
	if v, ok := val("amenities"); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &f.Amenities); err != nil {
			return f, fmt.Errorf("amenities must be a JSON object")
		}
	}
	if v, ok := val("photosToDelete"); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &f.PhotosToDelete); err != nil {
			return f, fmt.Errorf("photosToDelete must be a JSON array")
		}
	}

	files := mf.File["photos"]
	if len(files) > maxPhotos {
		return f, fmt.Errorf("at most %d photos can be uploaded", maxPhotos)
	}
	for _, fh := range files {
		p, err := readPhoto(fh)
		if err != nil {
			return f, err
		}
		f.Photos = append(f.Photos, p)
	}
	return f, nil
}

func readPhoto(fh *multipart.FileHeader) (apiclient.File, error) {
	if fh.Size > maxPhotoBytes {
		return apiclient.File{}, fmt.Errorf("photo %s is larger than 5 MB", fh.Filename)
	}
	src, err := fh.Open()
	if err != nil {
		return apiclient.File{}, fmt.Errorf("read photo %s: %w", fh.Filename, err)
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, maxPhotoBytes+1))
	if err != nil {
		return apiclient.File{}, fmt.Errorf("read photo %s: %w", fh.Filename, err)
	}
	if len(data) > maxPhotoBytes {
		return apiclient.File{}, fmt.Errorf("photo %s is larger than 5 MB", fh.Filename)
	}
	return apiclient.File{
		Field:       "photos",
		Name:        fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}
