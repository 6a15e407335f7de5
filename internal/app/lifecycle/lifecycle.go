// Package lifecycle implements listing state transitions.
//
// The service performs ownership and field validation only. Role-based
// authorization happens before any method here is called; routes pass in the
// already-established elevation fact so the two concerns stay separate.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	listingstore "github.com/ufarent/ufarent/internal/app/store/listings"
	"github.com/ufarent/ufarent/internal/app/system/authz"
	"github.com/ufarent/ufarent/internal/app/system/htmlsanitize"
	"github.com/ufarent/ufarent/internal/app/system/inputval"
	"github.com/ufarent/ufarent/internal/app/system/normalize"
	"github.com/ufarent/ufarent/internal/domain/models"
	"github.com/google/uuid"
)

// ValidationError reports a rejected field. No partial writes happen when
// validation fails.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// ListingStore is the persistence surface the service needs.
type ListingStore interface {
	GetByID(ctx context.Context, id string, includePhone bool) (*models.Listing, error)
	Create(ctx context.Context, l models.Listing) (models.Listing, error)
	UpdateFields(ctx context.Context, id string, upd listingstore.Update) error
	SetStatus(ctx context.Context, id string, status string) error
	Delete(ctx context.Context, id string) (int64, error)
	AddMedia(ctx context.Context, id string, photos, videos []string) error
}

// Service runs validated listing transitions against the store.
type Service struct {
	store ListingStore
}

func NewService(store ListingStore) *Service {
	return &Service{store: store}
}

// Caller identifies who is performing a transition. Elevated is true when the
// route has already established the caller is admin or above.
type Caller struct {
	UserID   string
	Elevated bool
}

// Input is the full set of client-editable listing fields. For Edit, only
// the keys listed in SetKeys are applied; everything else keeps its stored
// value.
type Input struct {
	Title        string
	Description  string
	Address      string
	District     string
	PropertyType string
	Price        int64
	Rooms        *int
	AreaM2       *float64
	Floor        *int
	Phone        string
	Lat          *float64
	Lng          *float64

	SetKeys []string
}

func (in Input) has(key string) bool {
	for _, k := range in.SetKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Create inserts a new listing owned by ownerID. A client-supplied UUID is
// accepted so media uploaded against a draft id stays correlated; without one
// the server generates the id. Status is Active unless draft is requested.
func (s *Service) Create(ctx context.Context, id string, in Input, ownerID string, draft bool) (*models.Listing, error) {
	if id == "" {
		id = uuid.NewString()
	} else if !inputval.IsValidUUID(id) {
		return nil, &ValidationError{Field: "id", Reason: "must be a UUID"}
	}
	if err := validateFields(in); err != nil {
		return nil, err
	}

	status := models.StatusActive
	if draft {
		status = models.StatusDraft
	}

	l := models.Listing{
		ID:           id,
		Title:        htmlsanitize.Plain(in.Title),
		Description:  htmlsanitize.Description(in.Description),
		Address:      htmlsanitize.Plain(in.Address),
		District:     in.District,
		PropertyType: in.PropertyType,
		Price:        in.Price,
		Rooms:        in.Rooms,
		AreaM2:       in.AreaM2,
		Floor:        in.Floor,
		Phone:        normalize.Phone(in.Phone),
		Lat:          in.Lat,
		Lng:          in.Lng,
		OwnerID:      ownerID,
		Status:       status,
	}

	created, err := s.store.Create(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authz.ErrStoreUnavailable, err)
	}
	return &created, nil
}

// Edit applies a merge update: keys named in in.SetKeys replace the stored
// value, everything else is kept. The merged result is re-validated as a
// whole. Ownership is enforced here; owner_id and id are never touched.
func (s *Service) Edit(ctx context.Context, id string, in Input, caller Caller) (*models.Listing, error) {
	current, err := s.getForWrite(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	merged := mergeInput(*current, in)
	if err := validateFields(merged); err != nil {
		return nil, err
	}

	upd := listingstore.Update{
		Title:        htmlsanitize.Plain(merged.Title),
		Description:  htmlsanitize.Description(merged.Description),
		Address:      htmlsanitize.Plain(merged.Address),
		District:     merged.District,
		PropertyType: merged.PropertyType,
		Price:        merged.Price,
		Rooms:        merged.Rooms,
		AreaM2:       merged.AreaM2,
		Floor:        merged.Floor,
		Phone:        normalize.Phone(merged.Phone),
		Lat:          merged.Lat,
		Lng:          merged.Lng,
	}
	if err := s.store.UpdateFields(ctx, id, upd); err != nil {
		return nil, fmt.Errorf("%w: %v", authz.ErrStoreUnavailable, err)
	}

	return s.store.GetByID(ctx, id, true)
}

// Archive moves a listing into the archive. Archiving an already archived
// listing succeeds without changing anything.
func (s *Service) Archive(ctx context.Context, id string) error {
	return s.transition(ctx, id, models.StatusArchived)
}

// Restore returns an archived listing to the active catalog and clears
// archived_at. Restoring an active listing succeeds without changes.
func (s *Service) Restore(ctx context.Context, id string) error {
	return s.transition(ctx, id, models.StatusActive)
}

// SetStatus transitions a listing to any known status directly.
func (s *Service) SetStatus(ctx context.Context, id string, status string) error {
	if !models.IsValidStatus(status) {
		return &ValidationError{Field: "status", Reason: "unknown status"}
	}
	return s.transition(ctx, id, status)
}

// Delete permanently removes a listing. Stored media paths are not garbage
// collected.
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %v", authz.ErrStoreUnavailable, err)
	}
	if n == 0 {
		return authz.ErrNotFound
	}
	return nil
}

// AttachMedia appends uploaded media paths to a listing the caller may edit.
func (s *Service) AttachMedia(ctx context.Context, id string, photos, videos []string, caller Caller) error {
	if _, err := s.getForWrite(ctx, id, caller); err != nil {
		return err
	}
	if err := s.store.AddMedia(ctx, id, photos, videos); err != nil {
		return fmt.Errorf("%w: %v", authz.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Service) transition(ctx context.Context, id string, status string) error {
	current, err := s.store.GetByID(ctx, id, false)
	if err != nil {
		return fmt.Errorf("%w: %v", authz.ErrStoreUnavailable, err)
	}
	if current == nil {
		return authz.ErrNotFound
	}
	if err := s.store.SetStatus(ctx, id, status); err != nil {
		return fmt.Errorf("%w: %v", authz.ErrStoreUnavailable, err)
	}
	return nil
}

// getForWrite loads a listing and checks the caller may modify it: the owner
// always can, anyone else needs the pre-established elevation.
func (s *Service) getForWrite(ctx context.Context, id string, caller Caller) (*models.Listing, error) {
	current, err := s.store.GetByID(ctx, id, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authz.ErrStoreUnavailable, err)
	}
	if current == nil {
		return nil, authz.ErrNotFound
	}
	if current.OwnerID != caller.UserID && !caller.Elevated {
		return nil, authz.ErrForbidden
	}
	return current, nil
}

func mergeInput(current models.Listing, in Input) Input {
	merged := Input{
		Title:        current.Title,
		Description:  current.Description,
		Address:      current.Address,
		District:     current.District,
		PropertyType: current.PropertyType,
		Price:        current.Price,
		Rooms:        current.Rooms,
		AreaM2:       current.AreaM2,
		Floor:        current.Floor,
		Phone:        current.Phone,
		Lat:          current.Lat,
		Lng:          current.Lng,
	}
	if in.has("title") {
		merged.Title = in.Title
	}
	if in.has("description") {
		merged.Description = in.Description
	}
	if in.has("address") {
		merged.Address = in.Address
	}
	if in.has("district") {
		merged.District = in.District
	}
	if in.has("property_type") {
		merged.PropertyType = in.PropertyType
	}
	if in.has("price") {
		merged.Price = in.Price
	}
	if in.has("rooms") {
		merged.Rooms = in.Rooms
	}
	if in.has("area_m2") {
		merged.AreaM2 = in.AreaM2
	}
	if in.has("floor") {
		merged.Floor = in.Floor
	}
	if in.has("phone") {
		merged.Phone = in.Phone
	}
	if in.has("lat") {
		merged.Lat = in.Lat
	}
	if in.has("lng") {
		merged.Lng = in.Lng
	}
	return merged
}

func validateFields(in Input) error {
	if htmlsanitize.Plain(in.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if in.Price <= 0 {
		return &ValidationError{Field: "price", Reason: "must be greater than zero"}
	}
	if !models.IsValidDistrict(in.District) {
		return &ValidationError{Field: "district", Reason: "unknown district"}
	}
	if !models.IsValidPropertyType(in.PropertyType) {
		return &ValidationError{Field: "property_type", Reason: "unknown unit type"}
	}
	return nil
}

// IsValidation reports whether err is a field validation failure and returns
// the typed error when it is.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
