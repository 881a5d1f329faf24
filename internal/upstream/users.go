package upstream

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/hams/portal-server-go/internal/errors"
	"github.com/hams/portal-server-go/internal/model"
)

const userService = "user-service"

type loginRole struct {
	RoleName model.Role `json:"roleName"`
}

type loginRequest struct {
	Email    string    `json:"email"`
	Password string    `json:"passwordHash"`
	Role     loginRole `json:"role"`
}

// Login exchanges credentials for a signed token. The role travels as a
// hint the way the login form sends it; the token's role claim is the
// authoritative answer. Unlike every other endpoint, the login service
// answers a successful request with the raw token text, not an
// envelope; only failures are enveloped.
func (c *Client) Login(ctx context.Context, email, password string, roleHint model.Role) (string, error) {
	body, status, err := c.roundTrip(ctx, userService, http.MethodPost,
		c.userBase+"/api/users/login", "",
		loginRequest{Email: email, Password: password, Role: loginRole{RoleName: roleHint}})
	if err != nil {
		return "", err
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		var env Envelope
		if jsonErr := unmarshalEnvelope(body, &env); jsonErr == nil && env.rejectionMessage() != "" {
			return "", apperrors.Unauthorized(env.rejectionMessage())
		}
		return "", apperrors.Unauthorized("invalid email or password")
	}
	if status < 200 || status >= 300 {
		var env Envelope
		if jsonErr := unmarshalEnvelope(body, &env); jsonErr == nil && !env.Success && env.rejectionMessage() != "" {
			return "", apperrors.RemoteRejected(env.rejectionMessage())
		}
		return "", apperrors.RemoteFailure(userService, statusError(status))
	}

	token := strings.TrimSpace(string(body))
	if token == "" {
		return "", apperrors.RemoteFailure(userService, errEmptyToken)
	}
	return token, nil
}

// RegisterPatient creates a new patient account on the user service.
func (c *Client) RegisterPatient(ctx context.Context, req model.RegisterPatientRequest) error {
	return c.call(ctx, userService, http.MethodPost, c.userBase+"/api/users/register/patient", "", req, nil)
}

// GetPatient fetches a patient profile.
func (c *Client) GetPatient(ctx context.Context, token, patientID string) (*model.Patient, error) {
	var patient model.Patient
	err := c.call(ctx, userService, http.MethodGet,
		c.userBase+"/api/patients/"+patientID, token, nil, &patient)
	if err != nil {
		return nil, err
	}
	return &patient, nil
}

// UpdatePatient writes profile changes back to the user service.
func (c *Client) UpdatePatient(ctx context.Context, token, patientID string, patient model.Patient) (*model.Patient, error) {
	var updated model.Patient
	err := c.call(ctx, userService, http.MethodPut,
		c.userBase+"/api/patients/update/"+patientID, token, patient, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
