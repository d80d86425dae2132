package supervisor

import (
	"context"

	"github.com/tessro/ocd/internal/daemon"
	"github.com/tessro/ocd/internal/openclaw"
)

// resolve returns the openclaw binary and profile name for a local profile.
func (s *Supervisor) resolve(ctx context.Context, profileID string) (bin, profile string, err error) {
	stored, err := s.store.Settings(ctx, profileID)
	if err != nil {
		return "", "", err
	}
	bin, err = s.openclaw.Resolve(deref(stored.OpenclawPath), s.config.OpenclawPath)
	if err != nil {
		return "", "", err
	}
	return bin, openclaw.ProfileName(profileID), nil
}

func (s *Supervisor) handleGateway(ctx context.Context, req *daemon.Request, verb openclaw.Verb) *daemon.Response {
	var profileReq daemon.ProfileRequest
	if err := unmarshalPayload(req.Payload, &profileReq); err != nil {
		return invalidPayload(req, err)
	}
	bin, profile, err := s.resolve(ctx, profileReq.ProfileID)
	if err != nil {
		return errorResponse(req, err.Error())
	}
	res, err := s.openclaw.Gateway(ctx, bin, profile, verb)
	if err != nil {
		return errorResponse(req, err.Error())
	}
	return successResponse(req, daemon.GatewayStatus{ExitCode: res.ExitCode, Stdout: res.Stdout, Stderr: res.Stderr})
}

// handleGatewayLogs tails the gateway logs. Zero lines means the default
// tail length; a negative count returns whole files.
func (s *Supervisor) handleGatewayLogs(ctx context.Context, req *daemon.Request) *daemon.Response {
	var logsReq daemon.GatewayLogsRequest
	if err := unmarshalPayload(req.Payload, &logsReq); err != nil {
		return invalidPayload(req, err)
	}
	lines := logsReq.Lines
	switch {
	case lines == 0:
		lines = daemon.DefaultGatewayLogLines
	case lines < 0:
		lines = 0
	}
	logs, err := openclaw.TailLogs(s.config.LogsDir, lines)
	if err != nil {
		return errorResponse(req, err.Error())
	}
	return successResponse(req, daemon.GatewayLogs{Out: logs.Out, Err: logs.Err})
}

func (s *Supervisor) handleModelsStatus(ctx context.Context, req *daemon.Request) *daemon.Response {
	var profileReq daemon.ProfileRequest
	if err := unmarshalPayload(req.Payload, &profileReq); err != nil {
		return invalidPayload(req, err)
	}
	bin, profile, err := s.resolve(ctx, profileReq.ProfileID)
	if err != nil {
		return errorResponse(req, err.Error())
	}
	res, err := s.openclaw.ModelsStatus(ctx, bin, profile)
	if err != nil {
		return errorResponse(req, err.Error())
	}
	return successResponse(req, daemon.ModelsStatus{ExitCode: res.ExitCode, Stdout: res.Stdout, Stderr: res.Stderr})
}

func (s *Supervisor) handleModelsSet(ctx context.Context, req *daemon.Request) *daemon.Response {
	var setReq daemon.ModelsSetRequest
	if err := unmarshalPayload(req.Payload, &setReq); err != nil {
		return invalidPayload(req, err)
	}
	bin, profile, err := s.resolve(ctx, setReq.ProfileID)
	if err != nil {
		return errorResponse(req, err.Error())
	}
	res, err := s.openclaw.SetModel(ctx, bin, profile, setReq.Model)
	if err != nil {
		return errorResponse(req, err.Error())
	}
	return successResponse(req, daemon.ModelsStatus{ExitCode: res.ExitCode, Stdout: res.Stdout, Stderr: res.Stderr})
}
