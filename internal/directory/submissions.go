package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/servicii-ro/directory/internal/form"
	"github.com/servicii-ro/directory/internal/metrics"
	"github.com/servicii-ro/directory/internal/routing"
)

// SubmissionInput is the public recommendation form.
type SubmissionInput struct {
	BusinessName   string `form:"business_name"   validate:"required,max=200"`
	CategoryName   string `form:"category_name"   validate:"required,max=120"`
	CityName       string `form:"city_name"       validate:"required,max=120"`
	Contact        string `form:"contact"         validate:"max=255"`
	Website        string `form:"website"         validate:"max=255"`
	Message        string `form:"message"         validate:"max=5000"`
	SubmitterName  string `form:"submitter_name"  validate:"max=120"`
	SubmitterEmail string `form:"submitter_email" validate:"omitempty,email,max=120"`
}

func (in *SubmissionInput) trim() {
	for _, p := range []*string{
		&in.BusinessName, &in.CategoryName, &in.CityName, &in.Contact,
		&in.Website, &in.Message, &in.SubmitterName, &in.SubmitterEmail,
	} {
		*p = strings.TrimSpace(*p)
	}
}

// Submissions is the moderation workflow.  Submit stores a PENDING
// recommendation; Approve and Reject decide it exactly once.
type Submissions struct {
	store    Store
	validate *validator.Validate
}

// NewSubmissions wires the workflow to store.
func NewSubmissions(store Store) *Submissions {
	return &Submissions{store: store, validate: form.NewValidator()}
}

// Submit validates and stores in.  Validation failures wrap ErrValidation
// and carry the validator's field errors.
func (w *Submissions) Submit(ctx context.Context, in SubmissionInput) (Submission, error) {
	in.trim()
	if err := w.validate.Struct(in); err != nil {
		return Submission{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	s := Submission{
		BusinessName:   in.BusinessName,
		CategoryName:   in.CategoryName,
		CityName:       in.CityName,
		Contact:        nullable(in.Contact),
		Website:        nullable(in.Website),
		Message:        nullable(in.Message),
		SubmitterName:  nullable(in.SubmitterName),
		SubmitterEmail: nullable(in.SubmitterEmail),
	}
	if err := w.store.CreateSubmission(ctx, &s); err != nil {
		return Submission{}, err
	}
	metrics.SubmissionsTotal.WithLabelValues("submitted").Inc()
	return s, nil
}

// Reject moves a PENDING submission to REJECTED.
func (w *Submissions) Reject(ctx context.Context, id int64) error {
	err := w.store.InTx(ctx, func(repo Repository) error {
		if _, err := repo.SubmissionByID(ctx, id); err != nil {
			return err
		}
		return transition(ctx, repo, id, StatusRejected)
	})
	if err == nil {
		metrics.SubmissionsTotal.WithLabelValues("rejected").Inc()
	}
	return err
}

// Approval reports what Approve did.
type Approval struct {
	Listing  Listing
	Category CategoryMatch
	City     CityResolution
}

// Approve promotes a PENDING submission to a Listing in one transaction:
// category reconciliation, city resolution, slug allocation, listing insert
// and the guarded status flip all commit together or not at all.
func (w *Submissions) Approve(ctx context.Context, id int64) (Approval, error) {
	var out Approval
	err := w.store.InTx(ctx, func(repo Repository) error {
		sub, err := repo.SubmissionByID(ctx, id)
		if err != nil {
			return err
		}
		if sub.Status != StatusPending {
			return fmt.Errorf("submission %d is %s: %w", id, sub.Status, ErrAlreadyDecided)
		}

		out.Category, err = ReconcileCategory(ctx, repo, sub.CategoryName)
		if err != nil {
			return err
		}
		if out.Category.Kind == NotFound {
			return ErrNoCategories
		}

		out.City, err = ResolveCity(ctx, repo, sub.CityName)
		if err != nil {
			return err
		}

		slug, err := routing.UniqueSlug(ctx, routing.MakeSlug(sub.BusinessName), repo.ListingSlugExists)
		if err != nil {
			return fmt.Errorf("listing slug: %w", err)
		}

		phone, desc := contactFields(sub.Contact, sub.Message)
		out.Listing = Listing{
			Name:        sub.BusinessName,
			Slug:        slug,
			Description: desc,
			CategoryID:  out.Category.ID,
			CityID:      out.City.City.ID,
			Website:     sub.Website,
			Phone:       phone,
		}
		if err := repo.CreateListing(ctx, &out.Listing); err != nil {
			return err
		}
		return transition(ctx, repo, id, StatusApproved)
	})
	if err != nil {
		return Approval{}, err
	}

	metrics.SubmissionsTotal.WithLabelValues("approved").Inc()
	zap.L().Info("submission approved",
		zap.Int64("submission_id", id),
		zap.Int64("listing_id", out.Listing.ID),
		zap.Stringer("category_match", out.Category.Kind),
		zap.Bool("city_created", out.City.Created))
	return out, nil
}

// PhoneMaxLen is the width of listing.phone and listing.whatsapp.
const PhoneMaxLen = 80

// contactFields maps a submission's free-text contact onto the listing.  A
// contact that does not fit the phone column is appended to the
// description instead, so nothing the submitter wrote is lost.
func contactFields(contact, message sql.NullString) (phone, desc sql.NullString) {
	if !contact.Valid || utf8.RuneCountInString(contact.String) <= PhoneMaxLen {
		return contact, message
	}
	note := "Contact: " + contact.String
	if message.Valid && message.String != "" {
		note = message.String + "\n\n" + note
	}
	return sql.NullString{}, nullable(note)
}

// transition flips PENDING to `to`.  A concurrent decision that got there
// first leaves zero rows matched.
func transition(ctx context.Context, repo Repository, id int64, to Status) error {
	ok, err := repo.TransitionSubmission(ctx, id, StatusPending, to)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("submission %d: %w", id, ErrAlreadyDecided)
	}
	return nil
}

// IsValidation reports whether err is a user-correctable input problem.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidCity)
}
