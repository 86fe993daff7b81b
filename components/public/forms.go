package public

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/servicii-ro/directory/internal/directory"
	"github.com/servicii-ro/directory/internal/form"
	"github.com/servicii-ro/directory/internal/head"
	"github.com/servicii-ro/directory/internal/mailer"
)

// --- recommend --------------------------------------------------------------

type recommendData struct {
	Input   directory.SubmissionInput
	Errors  map[string]string
	Success bool
}

func recommendHead() *head.Builder {
	h := head.New()
	h.SetTitle("Recomandă o firmă")
	h.SetDescription("Cunoști o firmă sau un specialist care vorbește română în Germania? Recomandă-l.")
	return h
}

func (c *Comp) recommendForm(w http.ResponseWriter, r *http.Request) {
	data := recommendData{Errors: map[string]string{}}
	c.d.Render(w, r, http.StatusOK, "recommend", c.d.Page(w, r, recommendHead(), data))
}

func (c *Comp) recommendSubmit(w http.ResponseWriter, r *http.Request) {
	if form.Trapped(r) {
		zap.L().Warn("recommendation trapped", zap.String("path", r.URL.Path))
		c.recommendDone(w, r)
		return
	}

	in := directory.SubmissionInput{
		BusinessName:   r.PostFormValue("business_name"),
		CategoryName:   r.PostFormValue("category_name"),
		CityName:       r.PostFormValue("city_name"),
		Contact:        r.PostFormValue("contact"),
		Website:        r.PostFormValue("website"),
		Message:        r.PostFormValue("message"),
		SubmitterName:  r.PostFormValue("submitter_name"),
		SubmitterEmail: r.PostFormValue("submitter_email"),
	}
	_, err := c.d.Submissions.Submit(r.Context(), in)
	switch {
	case err == nil:
		c.recommendDone(w, r)
	case directory.IsValidation(err):
		data := recommendData{Input: in, Errors: form.FieldErrors(err)}
		c.d.Render(w, r, http.StatusUnprocessableEntity, "recommend", c.d.Page(w, r, recommendHead(), data))
	default:
		c.d.Fail(w, r, err)
	}
}

func (c *Comp) recommendDone(w http.ResponseWriter, r *http.Request) {
	data := recommendData{Success: true}
	c.d.Render(w, r, http.StatusOK, "recommend", c.d.Page(w, r, recommendHead(), data))
}

// --- contact ----------------------------------------------------------------

type contactInput struct {
	Name    string `form:"name"    validate:"required,max=120"`
	Email   string `form:"email"   validate:"required,email,max=254"`
	Message string `form:"message" validate:"required,max=5000"`
}

type contactData struct {
	Input   contactInput
	Errors  map[string]string
	Success bool
	Failed  bool
}

var contactValidator = form.NewValidator()

func contactHead() *head.Builder {
	h := head.New()
	h.SetTitle("Contact")
	h.SetDescription("Scrie-ne pentru corecturi, parteneriate sau întrebări despre director.")
	return h
}

func (c *Comp) contactForm(w http.ResponseWriter, r *http.Request) {
	data := contactData{Errors: map[string]string{}}
	c.d.Render(w, r, http.StatusOK, "contact", c.d.Page(w, r, contactHead(), data))
}

func (c *Comp) contactSubmit(w http.ResponseWriter, r *http.Request) {
	if form.Trapped(r) {
		zap.L().Warn("contact trapped", zap.String("path", r.URL.Path))
		c.d.Render(w, r, http.StatusOK, "contact", c.d.Page(w, r, contactHead(), contactData{Success: true}))
		return
	}

	in := contactInput{
		Name:    strings.TrimSpace(r.PostFormValue("name")),
		Email:   strings.TrimSpace(r.PostFormValue("email")),
		Message: strings.TrimSpace(r.PostFormValue("message")),
	}
	if err := contactValidator.Struct(in); err != nil {
		data := contactData{Input: in, Errors: form.FieldErrors(err)}
		c.d.Render(w, r, http.StatusUnprocessableEntity, "contact", c.d.Page(w, r, contactHead(), data))
		return
	}

	msg := mailer.Contact{Name: in.Name, Email: in.Email, Message: in.Message}
	if err := mailer.SendContact(r.Context(), c.d.Mailer, msg, c.d.ContactTo); err != nil {
		data := contactData{Input: in, Errors: map[string]string{}, Failed: true}
		c.d.Render(w, r, http.StatusOK, "contact", c.d.Page(w, r, contactHead(), data))
		return
	}
	c.d.Render(w, r, http.StatusOK, "contact", c.d.Page(w, r, contactHead(), contactData{Success: true}))
}
