package httpapi

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"ibetu/internal/domain"
)

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Username    *string `json:"username"`
}

func (a *api) handleUsersMeUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if req.DisplayName == nil && req.Username == nil {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"display_name": "nothing to update"}))
		return
	}

	if req.DisplayName != nil {
		if err := a.profileSvc.UpdateDisplayName(r.Context(), u.ID, *req.DisplayName); err != nil {
			WriteDomainError(w, err)
			return
		}
		u.DisplayName = *req.DisplayName
	}
	if req.Username != nil {
		if err := a.profileSvc.UpdateUsername(r.Context(), u.ID, *req.Username); err != nil {
			WriteDomainError(w, err)
			return
		}
		u.Username = *req.Username
	}

	writeUser(w, http.StatusOK, u)
}

// Avatars are decoded and re-encoded as JPEG so the stored file is
// always a plain image no matter what the client uploaded.
func (a *api) handleUsersMeAvatar(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	const maxAvatarSize = 8 << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarSize)
	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_avatar", "avatar file is too large")
		return
	}

	file, _, err := r.FormFile("avatar")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_avatar", "avatar file is required")
		return
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_avatar", "avatar must be a valid image file")
		return
	}

	if err := os.MkdirAll(a.avatarDir, 0o755); err != nil {
		a.logger.Error("create avatar dir failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to store avatar")
		return
	}

	filename := fmt.Sprintf("%s-%d.jpg", u.ID, time.Now().UnixNano())
	targetPath := filepath.Join(a.avatarDir, filename)
	out, err := os.Create(targetPath)
	if err != nil {
		a.logger.Error("create avatar file failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to store avatar")
		return
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: 85}); err != nil {
		_ = os.Remove(targetPath)
		a.logger.Error("encode avatar failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "failed to store avatar")
		return
	}

	oldPath := u.AvatarPath
	if err := a.profileSvc.UpdateAvatar(r.Context(), u.ID, filename); err != nil {
		_ = os.Remove(targetPath)
		WriteDomainError(w, err)
		return
	}
	if oldPath != "" && oldPath != filename {
		_ = os.Remove(filepath.Join(a.avatarDir, oldPath))
	}

	u.AvatarPath = filename
	writeUser(w, http.StatusOK, u)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (a *api) handleUsersMePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if err := a.profileSvc.ChangePassword(r.Context(), u, req.CurrentPassword, req.NewPassword); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
