package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Zephony/zephony-go/controller"
	"github.com/Zephony/zephony-go/models"
	"github.com/Zephony/zephony-go/service"
	"github.com/Zephony/zephony-go/util"
	"github.com/Zephony/zephony-go/validators"
)

// ContactFields lists what contact listings may filter and sort on
var ContactFields = controller.Fields{
	"id":         {Type: controller.FieldInt},
	"name":       {Type: controller.FieldText},
	"email":      {Type: controller.FieldText},
	"phone":      {Type: controller.FieldText},
	"age":        {Type: controller.FieldInt},
	"subscribed": {Type: controller.FieldBool},
	"kind":       {Type: controller.FieldEnum},
	"zip":        {Type: controller.FieldText, Column: "address_zip"},
	"created_at": {Type: controller.FieldDate},
	"birth_date": {Type: controller.FieldDate},
}

// ContactPermissions are the bits the permissions column is built from
var ContactPermissions = map[string]uint64{
	"read":   1 << 0,
	"write":  1 << 1,
	"export": 1 << 2,
	"admin":  1 << 3,
}

// ContactColumns is the layout of contact CSV imports:
// no,name,email,phone,age,subscribed,kind,birth_date,permissions,city,street,zip
var ContactColumns = controller.Columns{
	"name":        controller.Col(1),
	"email":       controller.Col(2),
	"phone":       controller.Col(3),
	"age":         controller.Int(4),
	"subscribed":  controller.Boolean(5),
	"kind":        controller.Col(6),
	"birth_date":  controller.Datetime(7),
	"permissions": controller.PermissionTokens(8, ContactPermissions),
	"city_id": controller.ForeignKey(9, func(name string) models.Identifiable {
		return models.NewCity(name)
	}),
	"address": controller.Nested(controller.Columns{
		"street": controller.Col(10),
		"zip":    controller.Col(11),
	}),
}

type contactPayload struct {
	Name        string         `json:"name" validate:"required,valid_name"`
	Email       string         `json:"email" validate:"required,valid_email"`
	Phone       string         `json:"phone" validate:"omitempty,valid_phone"`
	Age         int            `json:"age" validate:"gte=0,lte=150"`
	Subscribed  bool           `json:"subscribed"`
	Kind        string         `json:"kind" validate:"omitempty,oneof=lead customer"`
	BirthDate   string         `json:"birth_date" validate:"valid_date=dd/mm/yyyy"`
	Permissions []string       `json:"permissions"`
	City        string         `json:"city"`
	Address     models.Address `json:"address"`
}

type contactPatch struct {
	Name       *string         `json:"name" validate:"omitnil,valid_name"`
	Email      *string         `json:"email" validate:"omitnil,valid_email"`
	Phone      *string         `json:"phone" validate:"omitnil,valid_phone"`
	Age        *int            `json:"age" validate:"omitnil,gte=0,lte=150"`
	Subscribed *bool           `json:"subscribed"`
	Kind       *string         `json:"kind" validate:"omitnil,oneof=lead customer"`
	Level      *string         `json:"level"`
	BirthDate  *string         `json:"birth_date" validate:"omitnil,valid_date=dd/mm/yyyy"`
	Address    *models.Address `json:"address"`
}

type smsPayload struct {
	Body string `json:"body" validate:"required,max=1600"`
}

// ContactHandler is the REST resource for contacts
type ContactHandler struct {
	contacts *controller.Repository[models.Contact]
	cities   *controller.Repository[models.City]
	uploader *service.Uploader
	mailer   service.Mailer
	sms      *service.SMSSender
}

func NewContactHandler(db *gorm.DB, uploader *service.Uploader, mailer service.Mailer, sms *service.SMSSender) *ContactHandler {
	return &ContactHandler{
		contacts: controller.NewRepository[models.Contact](db, ContactFields),
		cities:   controller.NewRepository[models.City](db, nil),
		uploader: uploader,
		mailer:   mailer,
		sms:      sms,
	}
}

func (h *ContactHandler) CollectionRoute() string { return "/contacts" }
func (h *ContactHandler) ResourceRoute() string   { return "/contacts/:id" }

// GetAll lists active contacts with query filters, ordering, pagination
// and a detail level
func (h *ContactHandler) GetAll(c *gin.Context) {
	ctx := c.Request.Context()
	active := func(q *gorm.DB) *gorm.DB { return q.Where("status = ?", util.StatusActive) }

	contacts, page, err := h.contacts.List(ctx, c.Request.URL.Query(), active)
	if handleControllerError(c, err) {
		return
	}
	details, err := models.GetObjectsDetails(contacts, detailLevel(c, models.LevelBasic))
	if handleControllerError(c, err) {
		return
	}
	activeCount, err := h.contacts.CountActive(ctx)
	if handleControllerError(c, err) {
		return
	}

	opts := []models.EnvelopeOption{models.WithSummary(activeCount)}
	if page != nil {
		opts = append(opts, models.WithPagination(page.CurrentPage, page.StandardPageSize, page.TotalPages))
	}
	Respond(c, models.Responsify(details, "", http.StatusOK, opts...))
}

func (h *ContactHandler) Get(c *gin.Context) {
	contact, err := h.contacts.GetOne(c.Request.Context(), resourceKey(c), util.StatusActive)
	if handleControllerError(c, err) {
		return
	}
	details, err := models.GetDetails(contact, detailLevel(c, models.LevelFull))
	if handleControllerError(c, err) {
		return
	}
	Respond(c, models.Responsify(details, "", http.StatusOK))
}

func (h *ContactHandler) Post(c *gin.Context) {
	var payload contactPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "data", "Request body must be a JSON object")
		return
	}
	if handleControllerError(c, validators.Validate(&payload)) {
		return
	}

	ctx := c.Request.Context()
	contact := &models.Contact{
		Name:       payload.Name,
		Email:      payload.Email,
		Phone:      payload.Phone,
		Age:        payload.Age,
		Subscribed: payload.Subscribed,
		Kind:       payload.Kind,
		Address:    payload.Address,
	}
	if contact.Kind == "" {
		contact.Kind = models.ContactLead
	}
	if payload.BirthDate != "" {
		bd, _ := time.Parse("02/01/2006", payload.BirthDate)
		contact.BirthDate = &bd
	}

	perms, err := permissionBits(payload.Permissions)
	if handleControllerError(c, err) {
		return
	}
	contact.Permissions = perms

	if payload.City != "" {
		cityID, err := h.cityID(ctx, payload.City)
		if handleControllerError(c, err) {
			return
		}
		contact.CityID = &cityID
	}

	if handleControllerError(c, contact.BeforeSeed(h.contacts.DB.WithContext(ctx))) {
		return
	}
	if handleControllerError(c, h.contacts.Create(ctx, contact)) {
		return
	}

	if h.mailer != nil {
		service.SendAsync(h.mailer, &service.Email{
			To:           []string{contact.Email},
			Subject:      "Welcome",
			Template:     "welcome.html",
			TemplateData: contact.Info(),
		})
	}

	details, err := models.GetDetails(contact, models.LevelFull)
	if handleControllerError(c, err) {
		return
	}
	Respond(c, models.Responsify(details, "Contact created", http.StatusCreated))
}

func (h *ContactHandler) Patch(c *gin.Context) {
	var patch contactPatch
	if err := c.ShouldBindBodyWithJSON(&patch); err != nil {
		respondError(c, http.StatusBadRequest, "data", "Request body must be a JSON object")
		return
	}
	var raw map[string]any
	if err := c.ShouldBindBodyWithJSON(&raw); err != nil {
		respondError(c, http.StatusBadRequest, "data", "Request body must be a JSON object")
		return
	}
	if handleControllerError(c, validators.Validate(&patch)) {
		return
	}

	ctx := c.Request.Context()
	contact, err := h.contacts.GetOne(ctx, resourceKey(c), util.StatusActive)
	if handleControllerError(c, err) {
		return
	}

	data := make(map[string]any, len(raw))
	for _, key := range []string{"name", "email", "phone", "age", "subscribed", "kind", "level", "address"} {
		if v, ok := raw[key]; ok {
			data[key] = v
		}
	}
	if patch.BirthDate != nil {
		if *patch.BirthDate == "" {
			contact.BirthDate = nil
		} else {
			bd, _ := time.Parse("02/01/2006", *patch.BirthDate)
			data["birth_date"] = bd
		}
	}

	changed, err := models.Apply(contact, data)
	if handleControllerError(c, err) {
		return
	}
	if handleControllerError(c, h.contacts.Save(ctx, contact)) {
		return
	}
	Respond(c, models.Responsify(changed, "Contact updated", http.StatusOK))
}

func (h *ContactHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	contact, err := h.contacts.GetOne(ctx, resourceKey(c), util.StatusActive)
	if handleControllerError(c, err) {
		return
	}
	if handleControllerError(c, h.contacts.Delete(ctx, contact)) {
		return
	}
	Respond(c, models.Responsify(contact.Info(), "Contact deleted", http.StatusOK))
}

// Import loads contacts from an uploaded CSV or XLSX file. Rows whose email
// is already taken are reported as duplicates and skipped; rows that cannot
// be stored are listed under failed.
func (h *ContactHandler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "file", "A CSV or XLSX file is required")
		return
	}
	if !util.IsAllowedFile(fh.Filename, "csv", "xlsx") {
		respondError(c, http.StatusBadRequest, "file", "Only .csv and .xlsx files are allowed")
		return
	}

	saved, err := h.uploader.SaveUpload(fh)
	if handleControllerError(c, err) {
		return
	}
	checksum, err := util.ChecksumFile(saved.Path)
	if handleControllerError(c, err) {
		return
	}

	result, err := h.contacts.LoadFromFile(c.Request.Context(), saved.Path, ContactColumns, controller.WithRowCommit())
	if err != nil {
		var invalid *models.InvalidRequestDataError
		if !errors.As(err, &invalid) && !errors.Is(err, context.DeadlineExceeded) {
			respondError(c, http.StatusBadRequest, "file", err.Error())
			return
		}
		handleControllerError(c, err)
		return
	}

	rejected := make([]map[string]any, 0, len(result.Rejected))
	for _, r := range result.Rejected {
		rejected = append(rejected, map[string]any{"row": r.Row, "errors": r.Errors})
	}
	failed := make([]string, 0)
	var rowErrs *multierror.Error
	if errors.As(result.Failed, &rowErrs) {
		for _, err := range rowErrs.Errors {
			failed = append(failed, err.Error())
		}
	}

	zap.L().Info("contacts imported",
		zap.String("file", filepath.Base(saved.Path)),
		zap.String("md5", checksum),
		zap.Int("created", len(result.Objects)),
		zap.Int("failed", len(failed)))

	Respond(c, models.Responsify(map[string]any{
		"file":                 saved,
		"checksum":             checksum,
		"total_non_empty_rows": result.TotalNonEmptyRows,
		"created":              len(result.Objects),
		"duplicates":           result.Duplicates,
		"rejected":             rejected,
		"failed":               failed,
	}, "Import finished", http.StatusOK))
}

// SendSMS texts the contact's phone number
func (h *ContactHandler) SendSMS(c *gin.Context) {
	var payload smsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "data", "Request body must be a JSON object")
		return
	}
	if handleControllerError(c, validators.Validate(&payload)) {
		return
	}

	ctx := c.Request.Context()
	contact, err := h.contacts.GetOne(ctx, resourceKey(c), util.StatusActive)
	if handleControllerError(c, err) {
		return
	}
	if contact.Phone == "" {
		respondError(c, http.StatusBadRequest, "data.phone", "Contact has no phone number")
		return
	}

	msg, err := h.sms.Send(ctx, contact.Phone, payload.Body)
	if err != nil {
		var apiErr *service.APIError
		if errors.As(err, &apiErr) {
			respondError(c, http.StatusBadGateway, "sms", apiErr.Error())
			return
		}
		handleControllerError(c, err)
		return
	}
	Respond(c, models.Responsify(msg, "SMS sent", http.StatusOK))
}

func (h *ContactHandler) cityID(ctx context.Context, name string) (uint, error) {
	city, err := h.cities.FilterOneByKeywords(ctx, map[string]any{"original_name": name, "status": util.StatusActive})
	if errors.Is(err, controller.ErrNotFound) {
		city = models.NewCity(name)
		err = h.cities.Create(ctx, city)
	}
	if err != nil {
		return 0, err
	}
	return city.ID, nil
}

func permissionBits(tokens []string) (string, error) {
	var bits uint64
	for _, t := range tokens {
		bit, ok := ContactPermissions[t]
		if !ok {
			return "", models.NewInvalidRequestData("data.permissions", fmt.Sprintf("Unknown permission %q", t))
		}
		bits |= bit
	}
	return fmt.Sprintf("%d", bits), nil
}
