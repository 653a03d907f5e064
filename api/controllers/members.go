package controllers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/membercards/api/responses"
	"github.com/angelmondragon/membercards/api/validators"
	"github.com/angelmondragon/membercards/internal/members"
	"github.com/angelmondragon/membercards/pkg/enums"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/angelmondragon/membercards/pkg/logger"
	"github.com/angelmondragon/membercards/pkg/types"
)

const (
	maxJSONBodyBytes   = 1 << 20
	multipartMemory    = 8 << 20
	multipartOverhead  = 1 << 20
	maxQueryLength     = 200
	photoFormField     = "photo"
	memberIDParam      = "id"
	contentTypeHeader  = "Content-Type"
	forwardedProtoHdr  = "X-Forwarded-Proto"
	multipartMediaType = "multipart/form-data"
)

// PhotoStore persists uploaded member photos.
type PhotoStore interface {
	Save(ctx context.Context, r io.ReadSeeker, filename string) (string, error)
	Delete(publicPath string) error
	MaxBytes() int64
}

type createMemberRequest struct {
	Nome      string `json:"nome"`
	Email     string `json:"email" validate:"omitempty,max=254"`
	Telefone  string `json:"telefone" validate:"max=32"`
	CPF       string `json:"cpf" validate:"max=32"`
	Categoria string `json:"categoria"`
	Validade  string `json:"validade" validate:"max=40"`
}

type updateMemberRequest struct {
	Nome      *string            `json:"nome"`
	Email     *string            `json:"email" validate:"omitempty,max=254"`
	Telefone  *string            `json:"telefone" validate:"omitempty,max=32"`
	CPF       *string            `json:"cpf" validate:"omitempty,max=32"`
	Categoria *string            `json:"categoria"`
	Validade  *string            `json:"validade" validate:"omitempty,max=40"`
	Ativo     types.OptionalBool `json:"ativo"`
}

// toPatch drops empty nome and categoria, matching the admin form which
// submits every field.
func (req updateMemberRequest) toPatch() members.Patch {
	var patch members.Patch
	if req.Nome != nil {
		if nome := strings.TrimSpace(*req.Nome); nome != "" {
			patch.Nome = &nome
		}
	}
	if req.Categoria != nil {
		if raw := strings.TrimSpace(*req.Categoria); raw != "" {
			categoria := enums.MemberCategory(raw)
			if parsed, err := enums.ParseMemberCategory(raw); err == nil {
				categoria = parsed
			}
			patch.Categoria = &categoria
		}
	}
	patch.Email = trimmed(req.Email)
	patch.Telefone = trimmed(req.Telefone)
	patch.CPF = trimmed(req.CPF)
	patch.Validade = trimmed(req.Validade)
	patch.Ativo = req.Ativo.Ptr()
	return patch
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}

// MemberList returns the registry, optionally narrowed by q, categoria and ativo.
func MemberList(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		categoria, err := validators.ParseQueryCategory(r, "categoria")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ativo, err := validators.ParseQueryBool(r, "ativo")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), members.Filter{
			Query:     validators.SanitizeString(r.URL.Query().Get("q"), maxQueryLength),
			Categoria: categoria,
			Ativo:     ativo,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func MemberStats(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func MemberGet(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}
		ctx, id := memberContext(r, logg)
		member, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, member)
	}
}

// MemberShare returns the card link and a prefilled WhatsApp message.
func MemberShare(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}
		ctx, id := memberContext(r, logg)
		link, err := svc.Share(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, link)
	}
}

// MemberCreate registers a member and issues the card. Card links use
// publicBaseURL when set, otherwise the request origin.
func MemberCreate(svc members.Service, photos PhotoStore, publicBaseURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		var body createMemberRequest
		photo, err := decodeMemberRequest(w, r, photos, &body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.Create(r.Context(), members.CreateInput{
			Nome:      body.Nome,
			Email:     body.Email,
			Telefone:  body.Telefone,
			CPF:       body.CPF,
			Categoria: body.Categoria,
			Validade:  body.Validade,
			Photo:     photo,
			BaseURL:   requestBaseURL(r, publicBaseURL),
		})
		if err != nil {
			discardPhoto(r.Context(), photos, photo, logg)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithMemberID(r.Context(), member.ID)
			logg.Info(logg.WithField(ctx, "numero_filiacao", member.NumeroFiliacao), "member.created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, member)
	}
}

// MemberUpdate applies a partial update. A new photo replaces the old file.
func MemberUpdate(svc members.Service, photos PhotoStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}
		ctx, id := memberContext(r, logg)

		var body updateMemberRequest
		photo, err := decodeMemberRequest(w, r, photos, &body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var previousPhoto *string
		patch := body.toPatch()
		if photo != nil {
			patch.Photo = photo
			if current, getErr := svc.Get(ctx, id); getErr == nil {
				previousPhoto = current.Photo
			}
		}

		member, err := svc.Update(ctx, id, patch)
		if err != nil {
			discardPhoto(ctx, photos, photo, logg)
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if photo != nil {
			discardPhoto(ctx, photos, previousPhoto, logg)
		}

		if logg != nil {
			logg.Info(ctx, "member.updated")
		}
		responses.WriteSuccess(w, member)
	}
}

// MemberDelete removes a member and its stored photo.
func MemberDelete(svc members.Service, photos PhotoStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}
		ctx, id := memberContext(r, logg)

		var photo *string
		if current, err := svc.Get(ctx, id); err == nil {
			photo = current.Photo
		}

		if err := svc.Delete(ctx, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		discardPhoto(ctx, photos, photo, logg)

		if logg != nil {
			logg.Info(ctx, "member.deleted")
		}
		responses.WriteSuccess(w, types.DeleteResult{Success: true})
	}
}

func memberContext(r *http.Request, logg *logger.Logger) (context.Context, string) {
	id := strings.TrimSpace(chi.URLParam(r, memberIDParam))
	ctx := r.Context()
	if logg != nil && id != "" {
		ctx = logg.WithMemberID(ctx, id)
	}
	return ctx, id
}

// decodeMemberRequest fills dest from a JSON or multipart body. For multipart
// bodies an optional photo part is validated and stored; its public path is
// returned.
func decodeMemberRequest(w http.ResponseWriter, r *http.Request, photos PhotoStore, dest any) (*string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get(contentTypeHeader))
	if mediaType != multipartMediaType {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		return nil, validators.DecodeJSONBody(r, dest)
	}

	limit := int64(maxJSONBodyBytes)
	if photos != nil {
		limit = photos.MaxBytes() + multipartOverhead
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body too large").
				WithDetails(map[string]any{"maxBytes": limit})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
	}
	defer r.MultipartForm.RemoveAll()

	if err := validators.DecodeFormValues(r.MultipartForm.Value, dest); err != nil {
		return nil, err
	}

	file, header, err := r.FormFile(photoFormField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid photo part")
	}
	defer file.Close()

	if photos == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo uploads are disabled")
	}
	if photos.MaxBytes() > 0 && header.Size > photos.MaxBytes() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "photo exceeds upload limit").
			WithDetails(map[string]any{"maxBytes": photos.MaxBytes()})
	}

	publicPath, err := photos.Save(r.Context(), file, header.Filename)
	if err != nil {
		return nil, err
	}
	return &publicPath, nil
}

func discardPhoto(ctx context.Context, photos PhotoStore, photo *string, logg *logger.Logger) {
	if photos == nil || photo == nil || *photo == "" {
		return
	}
	if err := photos.Delete(*photo); err != nil && logg != nil {
		logg.Error(logg.WithField(ctx, "photo", *photo), "member.photo_cleanup_failed", err)
	}
}

// requestBaseURL prefers the configured public origin and otherwise rebuilds
// it from the request, honouring X-Forwarded-Proto.
func requestBaseURL(r *http.Request, configured string) string {
	if base := strings.TrimRight(strings.TrimSpace(configured), "/"); base != "" {
		return base
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := strings.TrimSpace(r.Header.Get(forwardedProtoHdr)); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + r.Host
}
