package stage

import (
	"context"
	"net/url"
	"strconv"

	"github.com/civicgate/filingpilot/internal/extract"
	"github.com/civicgate/filingpilot/internal/session"
	"github.com/civicgate/filingpilot/internal/transport"
	"github.com/civicgate/filingpilot/internal/types"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// Upload widget identifiers.
const (
	openUploadTarget  = "wizardForm:attachments:openUpload"
	uploadFileParam   = "wizardForm:attachments:upload"
	applyUploadTarget = "wizardForm:attachments:apply"
)

// stage4 handles attachments. Each attachment runs a three-round
// sub-protocol: a click event opens the upload surface, a multipart POST
// carries the file, a second click applies it. Every round re-synchronizes
// the token bundle.
type stage4 struct {
	base
}

// NewStage4 creates the attachment stage.
func NewStage4(deps *Deps) Handler {
	return &stage4{base: base{deps}}
}

func (s *stage4) Number() int { return 4 }

// Events is empty: the upload rounds are a sub-protocol driven by Execute,
// not pre-commit events of the final submission.
func (s *stage4) Events(app *types.Application) []Event { return nil }

func (s *stage4) Fields(app *types.Application) *transport.Form {
	f := transport.NewForm()
	f.Set("wizardForm:attachments:count", strconv.Itoa(len(app.Attachments)))
	return f
}

func (s *stage4) Execute(ctx context.Context, app *types.Application, sess *session.Session) error {
	for _, att := range app.Attachments {
		if err := s.Deps.Events.FireClick(ctx, sess, openUploadTarget, nil); err != nil {
			return s.asFailure(4, err)
		}
		if err := s.upload(ctx, sess, att); err != nil {
			return err
		}
		if err := s.Deps.Events.FireClick(ctx, sess, applyUploadTarget, nil); err != nil {
			return s.asFailure(4, err)
		}
		s.Log.Debug("attachment applied", zap.String("filename", att.Filename))
	}
	return s.submit(ctx, sess, 4, s.Fields(app))
}

// upload is the multipart round. The response is a partial update; tokens it
// carries are merged, the rest of the bundle stays.
func (s *stage4) upload(ctx context.Context, sess *session.Session, att types.Attachment) error {
	tokens, err := sess.Tokens()
	if err != nil {
		return &Failure{Stage: 4, Code: types.ErrInternal, Message: err.Error()}
	}

	contentType := att.MimeType
	if contentType == "" {
		contentType = mimetype.Detect(att.Content).String()
	}

	form := transport.NewForm()
	form.Set(formParam, formParam)
	form.Set(extract.ViewStateParam, tokens.ViewState)
	form.Set(extract.ClientWindowParam, tokens.ClientWindow)
	form.Set(extract.NonceParam, tokens.Nonce)

	query := url.Values{windowQuery: {tokens.WindowID()}}
	resp, err := s.Client.PostMultipart(ctx, s.Path, query, form, transport.FileUpload{
		Param:       uploadFileParam,
		Filename:    att.Filename,
		ContentType: contentType,
		Content:     att.Content,
	})
	if err != nil {
		return &Failure{Stage: 4, Code: types.ErrTransport, Message: err.Error()}
	}
	sess.RecordResponse(resp.Body)

	if marker := s.Extract.ErrorMarkers(resp.Body); marker != nil {
		return s.markerFailure(4, marker)
	}
	if err := sess.Update(s.Extract.Tokens(resp.Body)); err != nil {
		return &Failure{Stage: 4, Code: types.ErrInternal, Message: err.Error()}
	}
	return nil
}
