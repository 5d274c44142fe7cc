package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"simacca/internal/agenda"
	"simacca/internal/locale"
	appLog "simacca/internal/log"
	"simacca/internal/model"
	"simacca/internal/remote"
	"simacca/internal/report"
)

// maxWriteBody leaves room for a base64 attachment at the 5 MB cap.
const maxWriteBody = 8 << 20

type agendaListResponse struct {
	Agenda   []model.Agenda `json:"agenda"`
	LastSync *time.Time     `json:"last_sync"`
	Loading  bool           `json:"loading"`
}

func (s *Server) handleAgenda(w http.ResponseWriter, _ *http.Request) {
	resp := agendaListResponse{
		Agenda:  s.deps.Store.Snapshot(),
		Loading: s.deps.Store.Loading(),
	}
	if ts := s.deps.Store.LastSync(); !ts.IsZero() {
		resp.LastSync = &ts
	}
	writeJSON(w, http.StatusOK, resp)
}

type dayResponse struct {
	Date   string         `json:"date"`
	Label  string         `json:"label"`
	Filter string         `json:"filter,omitempty"`
	Agenda []model.Agenda `json:"agenda"`
}

func (s *Server) handleToday(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	writeJSON(w, http.StatusOK, dayResponse{
		Date:   now.In(s.civil.Loc).Format(locale.DateLayout),
		Label:  s.civil.LongDate(now),
		Agenda: agenda.Today(s.deps.Store.Snapshot(), now, s.civil),
	})
}

type nextResponse struct {
	Agenda      model.Agenda `json:"agenda"`
	Placeholder bool         `json:"placeholder"`
}

func (s *Server) handleNext(w http.ResponseWriter, _ *http.Request) {
	next := agenda.Next(s.deps.Store.Snapshot(), s.now(), s.civil)
	writeJSON(w, http.StatusOK, nextResponse{Agenda: next, Placeholder: next.ID == model.NoAgendaID})
}

// selectedDate reads ?date=YYYY-MM-DD, defaulting to today.
func (s *Server) selectedDate(r *http.Request) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		return s.civil.Midnight(s.now()), nil
	}
	return s.civil.ParseDate(raw)
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	day, err := s.selectedDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	filter := strings.TrimSpace(r.URL.Query().Get("filter"))
	if filter == "" {
		filter = agenda.FilterAll
	}
	key := day.Format(locale.DateLayout)
	writeJSON(w, http.StatusOK, dayResponse{
		Date:   key,
		Label:  s.civil.LongDate(day),
		Filter: filter,
		Agenda: agenda.OnDate(s.deps.Store.Snapshot(), key, filter),
	})
}

type detailResponse struct {
	Agenda      model.Agenda `json:"agenda"`
	DisplayDate string       `json:"display_date"`
	DisplayTime string       `json:"display_time"`
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.deps.Store.Find(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "agenda not found")
		return
	}
	writeJSON(w, http.StatusOK, detailResponse{
		Agenda:      rec,
		DisplayDate: agenda.DetailDate(rec.Date, s.civil),
		DisplayTime: agenda.DetailTime(rec.Time, s.civil),
	})
}

type formResponse struct {
	State   string           `json:"state"`
	Input   agenda.FormInput `json:"input"`
	Editing *model.Agenda    `json:"editing,omitempty"`
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.deps.Store.Find(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "agenda not found")
		return
	}
	form := s.newForm()
	form.OpenEdit(rec)
	writeJSON(w, http.StatusOK, formResponse{
		State:   form.State().String(),
		Input:   form.Input(),
		Editing: &rec,
	})
}

type weekResponse struct {
	Month string           `json:"month"`
	Days  []agenda.WeekDay `json:"days"`
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	day, err := s.selectedDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	days, err := agenda.WeekStrip(day, s.civil)
	if err != nil {
		appLog.Error("week strip failed", err, "date", day.Format(locale.DateLayout))
		writeError(w, http.StatusInternalServerError, "failed to build week")
		return
	}
	writeJSON(w, http.StatusOK, weekResponse{Month: s.civil.MonthYear(day), Days: days})
}

func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	now := s.now()
	day := now.In(s.civil.Loc).Format(locale.DateLayout)
	synced := s.deps.Store.LastSync()

	s.icsMu.RLock()
	c := s.icsCache
	s.icsMu.RUnlock()

	var body string
	if c != nil && c.day == day && c.syncedAt.Equal(synced) {
		body = c.body
	} else {
		body = agenda.ExportICS(s.deps.Store.Snapshot(), s.civil, now)
		s.icsMu.Lock()
		s.icsCache = &icsCache{body: body, day: day, syncedAt: synced}
		s.icsMu.Unlock()
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="simacca.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

func (s *Server) handleTargets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"targets": s.cfg.ReferralTargets})
}

type refreshResponse struct {
	Records  int       `json:"records"`
	LastSync time.Time `json:"last_sync"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "refresh failed; showing cached agenda")
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		Records:  len(s.deps.Store.Snapshot()),
		LastSync: s.deps.Store.LastSync(),
	})
}

func (s *Server) newForm() *agenda.Form {
	form := agenda.NewForm(s.deps.Writer, s.deps.Store, s.settle)
	form.Targets = s.cfg.ReferralTargets
	form.Now = s.now
	return form
}

type attachmentJSON struct {
	Name string `json:"name"`
	// Data is the raw file, base64 in JSON.
	Data []byte `json:"data"`
}

type agendaRequest struct {
	agenda.FormInput
	Attachment *attachmentJSON `json:"attachment,omitempty"`
}

type writeResponse struct {
	Outcome remote.WriteResult `json:"outcome"`
	Action  remote.Action      `json:"action"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	form := s.newForm()
	form.OpenNew()
	s.submit(w, r, form, remote.ActionCreate)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.deps.Store.Find(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "agenda not found")
		return
	}
	form := s.newForm()
	form.OpenEdit(rec)
	s.submit(w, r, form, remote.ActionUpdate)
}

// submit fills the open form from the request, sends the write and schedules
// the delayed refresh that closes the form.
func (s *Server) submit(w http.ResponseWriter, r *http.Request, form *agenda.Form, action remote.Action) {
	if err := s.readForm(w, r, form); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig), errors.Is(err, agenda.ErrAttachmentTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, agenda.ErrAttachmentTooLarge.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	res, err := form.Send(r.Context())
	switch {
	case errors.Is(err, agenda.ErrIncomplete), errors.Is(err, agenda.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, remote.ErrNoEndpoint):
		writeError(w, http.StatusServiceUnavailable, "remote endpoint not configured")
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, "failed to send agenda")
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		form.Settle(s.baseCtx)
	}()

	writeJSON(w, http.StatusAccepted, writeResponse{Outcome: res, Action: action})
}

func (s *Server) readForm(w http.ResponseWriter, r *http.Request, form *agenda.Form) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxWriteBody)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		return s.readMultipart(r, form)
	}

	var req agendaRequest
	if err := decodeJSONBody(r, &req); err != nil {
		return err
	}
	if err := form.SetInput(req.FormInput); err != nil {
		return err
	}
	if req.Attachment != nil && len(req.Attachment.Data) > 0 {
		return form.Attach(req.Attachment.Name, req.Attachment.Data)
	}
	return nil
}

func (s *Server) readMultipart(r *http.Request, form *agenda.Form) error {
	if err := r.ParseMultipartForm(maxWriteBody); err != nil {
		return err
	}
	v := r.MultipartForm.Value
	get := func(k string) string {
		if vs := v[k]; len(vs) > 0 {
			return strings.TrimSpace(vs[0])
		}
		return ""
	}

	targets := []string{}
	for _, t := range v["referral_targets"] {
		targets = append(targets, agenda.SplitReferrals(t)...)
	}

	in := agenda.FormInput{
		Title:           get("title"),
		Date:            get("date"),
		Time:            get("time"),
		Status:          model.Status(get("status")),
		Organizer:       get("organizer"),
		Location:        get("location"),
		DressCode:       get("dress_code"),
		Notes:           get("notes"),
		ReferralTargets: targets,
	}
	if err := form.SetInput(in); err != nil {
		return err
	}

	file, hdr, err := r.FormFile("attachment")
	if errors.Is(err, http.ErrMissingFile) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()
	if hdr.Size > agenda.MaxAttachmentBytes {
		return agenda.ErrAttachmentTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, agenda.MaxAttachmentBytes+1))
	if err != nil {
		return err
	}
	return form.Attach(hdr.Filename, data)
}

func decodeJSONBody(r *http.Request, v any) error {
	if err := jsonDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

type reportRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(w, r, &req, 1<<16); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := s.deps.Reports.Generate(r.Context(), s.deps.Store.Snapshot(), req.Start, req.End)
	switch {
	case report.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, report.ErrNoData):
		writeJSON(w, http.StatusOK, map[string]string{"outcome": "no_data", "message": "no agenda in the selected range"})
		return
	case err != nil:
		appLog.Error("report generation failed", err, "start", req.Start, "end", req.End)
		writeError(w, http.StatusInternalServerError, "failed to generate report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.PDF)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.PDF)
}
