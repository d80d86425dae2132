package supervisor

import (
	"context"

	"github.com/tessro/ocd/internal/daemon"
)

// withDefaults back-fills unset fields from the daemon config.
func (s *Supervisor) withDefaults(ps *daemon.ProfileSettings) *daemon.ProfileSettings {
	out := *ps
	out.Version = 1
	if out.OllamaBaseURL == nil {
		v := s.config.OllamaBaseURL
		out.OllamaBaseURL = &v
	}
	if out.OllamaModel == nil {
		v := s.config.OllamaModel
		out.OllamaModel = &v
	}
	if out.DevFullExecAuto == nil {
		off := false
		out.DevFullExecAuto = &off
	}
	if out.AutoDoMode == nil {
		off := false
		out.AutoDoMode = &off
	}
	return &out
}

// settings returns a profile's settings with defaults applied.
func (s *Supervisor) settings(ctx context.Context, profileID string) (*daemon.ProfileSettings, error) {
	stored, err := s.store.Settings(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.withDefaults(stored), nil
}

func (s *Supervisor) handleSettingsGet(ctx context.Context, req *daemon.Request) *daemon.Response {
	var profileReq daemon.ProfileRequest
	if err := unmarshalPayload(req.Payload, &profileReq); err != nil {
		return invalidPayload(req, err)
	}
	ps, err := s.settings(ctx, profileReq.ProfileID)
	return respond(req, ps, err)
}

// handleSettingsString stores an optional string setting. Blank values clear it.
func (s *Supervisor) handleSettingsString(ctx context.Context, req *daemon.Request, set func(*daemon.ProfileSettings, *string)) *daemon.Response {
	var setReq daemon.SettingsStringRequest
	if err := unmarshalPayload(req.Payload, &setReq); err != nil {
		return invalidPayload(req, err)
	}
	v := optional(setReq.Value)
	stored, err := s.store.UpdateSettings(ctx, setReq.ProfileID, func(ps *daemon.ProfileSettings) { set(ps, v) })
	if err != nil {
		return errorResponse(req, err.Error())
	}
	return successResponse(req, s.withDefaults(stored))
}

// handleSettingsBool stores a boolean setting.
func (s *Supervisor) handleSettingsBool(ctx context.Context, req *daemon.Request, set func(*daemon.ProfileSettings, *bool)) *daemon.Response {
	var setReq daemon.SettingsBoolRequest
	if err := unmarshalPayload(req.Payload, &setReq); err != nil {
		return invalidPayload(req, err)
	}
	stored, err := s.store.UpdateSettings(ctx, setReq.ProfileID, func(ps *daemon.ProfileSettings) {
		enabled := setReq.Enabled
		set(ps, &enabled)
	})
	if err != nil {
		return errorResponse(req, err.Error())
	}
	return successResponse(req, s.withDefaults(stored))
}

func (s *Supervisor) handleAutostartGet(ctx context.Context, req *daemon.Request) *daemon.Response {
	if s.autostart == nil {
		return successResponse(req, daemon.AutostartPayload{Enabled: false})
	}
	on, err := s.autostart.Enabled()
	return respond(req, daemon.AutostartPayload{Enabled: on}, err)
}

func (s *Supervisor) handleAutostartSet(ctx context.Context, req *daemon.Request) *daemon.Response {
	var setReq daemon.AutostartPayload
	if err := unmarshalPayload(req.Payload, &setReq); err != nil {
		return invalidPayload(req, err)
	}
	if s.autostart == nil {
		return errorResponse(req, "autostart is not supported on this platform")
	}
	return respond(req, nil, s.autostart.Set(setReq.Enabled))
}
