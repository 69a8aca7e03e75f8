package auth

import (
	"errors"
	"net/http"

	"dutchthrift_server/lib"
	"dutchthrift_server/structs"

	"github.com/MonkyMars/gecho"
)

// HandleRequestPasswordSetup mails a set-password link. The answer is the
// same whether or not the email belongs to an account.
func (arm *AuthRoutesManager) HandleRequestPasswordSetup(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.PasswordSetupRequest](r)
	if err != nil {
		gecho.BadRequest(w, gecho.WithMessage("Please provide a valid email address"), gecho.Send())
		return
	}

	if err := arm.authService.RequestPasswordSetup(r.Context(), body.Email); err != nil {
		arm.logger.Error("Failed to issue password setup link", gecho.Field("error", err))
		gecho.InternalServerError(w, gecho.WithMessage("Unable to send the link. Please try again later"), gecho.Send())
		return
	}

	gecho.Success(w,
		gecho.WithMessage("If an account exists for this email, a link to set your password has been sent"),
		gecho.Send(),
	)
}

func (arm *AuthRoutesManager) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.SetPasswordRequest](r)
	if err != nil {
		var ve *lib.ValidationError
		if errors.As(err, &ve) {
			gecho.BadRequest(w, gecho.WithMessage("Validation error"), gecho.WithData(ve), gecho.Send())
			return
		}
		gecho.BadRequest(w, gecho.WithMessage("Invalid request body"), gecho.Send())
		return
	}

	customer, err := arm.authService.SetPassword(r.Context(), body)
	if err != nil {
		switch {
		case errors.Is(err, lib.ErrInvalidToken):
			gecho.BadRequest(w, gecho.WithMessage("This link is invalid or has already been used"), gecho.Send())
		case errors.Is(err, lib.ErrExpiredToken):
			gecho.BadRequest(w, gecho.WithMessage("This link has expired. Please request a new one"), gecho.Send())
		default:
			arm.logger.Error("Failed to set password", gecho.Field("error", err))
			gecho.InternalServerError(w, gecho.WithMessage("Unable to set your password. Please try again"), gecho.Send())
		}
		return
	}

	gecho.Success(w,
		gecho.WithMessage("Password set successfully. You can now log in"),
		gecho.WithData(map[string]any{"email": customer.Email}),
		gecho.Send(),
	)
}
