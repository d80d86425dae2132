package supervisor

import (
	"context"
	"errors"
	"strings"

	"github.com/tessro/ocd/internal/daemon"
)

func (s *Supervisor) handleProfilesList(ctx context.Context, req *daemon.Request) *daemon.Response {
	ps, err := s.store.Profiles(ctx)
	return respond(req, ps, err)
}

func (s *Supervisor) handleProfilesCreate(ctx context.Context, req *daemon.Request) *daemon.Response {
	var createReq daemon.ProfileCreateRequest
	if err := unmarshalPayload(req.Payload, &createReq); err != nil {
		return invalidPayload(req, err)
	}
	ps, err := s.store.CreateProfile(ctx, createReq.Name)
	return respond(req, ps, err)
}

func (s *Supervisor) handleProfilesSetActive(ctx context.Context, req *daemon.Request) *daemon.Response {
	var profileReq daemon.ProfileRequest
	if err := unmarshalPayload(req.Payload, &profileReq); err != nil {
		return invalidPayload(req, err)
	}
	ps, err := s.store.SetActiveProfile(ctx, profileReq.ProfileID)
	return respond(req, ps, err)
}

func (s *Supervisor) handleProfilesRename(ctx context.Context, req *daemon.Request) *daemon.Response {
	var renameReq daemon.ProfileRenameRequest
	if err := unmarshalPayload(req.Payload, &renameReq); err != nil {
		return invalidPayload(req, err)
	}
	ps, err := s.store.RenameProfile(ctx, renameReq.ProfileID, renameReq.Name)
	return respond(req, ps, err)
}

func (s *Supervisor) handleProfilesDelete(ctx context.Context, req *daemon.Request) *daemon.Response {
	var profileReq daemon.ProfileRequest
	if err := unmarshalPayload(req.Payload, &profileReq); err != nil {
		return invalidPayload(req, err)
	}
	ps, err := s.store.DeleteProfile(ctx, profileReq.ProfileID)
	return respond(req, ps, err)
}

// decodeSecret decodes and checks a secrets.* payload.
func decodeSecret(req *daemon.Request) (daemon.SecretRequest, error) {
	var secretReq daemon.SecretRequest
	if err := unmarshalPayload(req.Payload, &secretReq); err != nil {
		return secretReq, err
	}
	if secretReq.ProfileID == "" {
		return secretReq, errors.New("profile_id required")
	}
	if strings.TrimSpace(secretReq.Key) == "" {
		return secretReq, errors.New("key required")
	}
	return secretReq, nil
}

func (s *Supervisor) handleSecretsSet(ctx context.Context, req *daemon.Request) *daemon.Response {
	secretReq, err := decodeSecret(req)
	if err != nil {
		return invalidPayload(req, err)
	}
	return respond(req, nil, s.secrets.Set(ctx, secretReq.ProfileID, secretReq.Key, secretReq.Value))
}

func (s *Supervisor) handleSecretsGet(ctx context.Context, req *daemon.Request) *daemon.Response {
	secretReq, err := decodeSecret(req)
	if err != nil {
		return invalidPayload(req, err)
	}
	v, err := s.secrets.Get(ctx, secretReq.ProfileID, secretReq.Key)
	return respond(req, daemon.SecretGetResponse{Value: v}, err)
}

func (s *Supervisor) handleSecretsDelete(ctx context.Context, req *daemon.Request) *daemon.Response {
	secretReq, err := decodeSecret(req)
	if err != nil {
		return invalidPayload(req, err)
	}
	return respond(req, nil, s.secrets.Delete(ctx, secretReq.ProfileID, secretReq.Key))
}
