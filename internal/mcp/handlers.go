package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/a3tai/mcp-form-guide/internal/assistant"
	"github.com/a3tai/mcp-form-guide/internal/extraction"
	"github.com/a3tai/mcp-form-guide/internal/formstore"
	"github.com/a3tai/mcp-form-guide/internal/guidance"
	"github.com/a3tai/mcp-form-guide/internal/intelligence"
)

// stringArg returns an optional string argument, or "".
func stringArg(request mcp.CallToolRequest, key string) string {
	if v, ok := request.GetArguments()[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// languageArg parses the optional language argument. An empty value means
// the stored preference.
func languageArg(request mcp.CallToolRequest) (guidance.Language, error) {
	raw := stringArg(request, "language")
	if raw == "" {
		return "", nil
	}
	language, ok := guidance.ParseLanguage(raw)
	if !ok {
		return "", fmt.Errorf("unsupported language %q (use english or nepali)", raw)
	}
	return language, nil
}

// formTypeArg parses the optional form_type argument. An empty value is
// CategoryUnknown.
func formTypeArg(request mcp.CallToolRequest) (intelligence.Category, error) {
	raw := stringArg(request, "form_type")
	if raw == "" {
		return intelligence.CategoryUnknown, nil
	}
	category, ok := intelligence.ParseCategory(raw)
	if !ok {
		return "", fmt.Errorf("unknown form type %q", raw)
	}
	return category, nil
}

// documentArg returns the markup from either the html or the path argument.
func (s *Server) documentArg(request mcp.CallToolRequest) (string, error) {
	if html := stringArg(request, "html"); html != "" {
		if int64(len(html)) > s.config.MaxDocumentSize {
			return "", fmt.Errorf("html exceeds maximum size of %d bytes", s.config.MaxDocumentSize)
		}
		return html, nil
	}
	if path := stringArg(request, "path"); path != "" {
		return s.service.ReadDocument(path)
	}
	return "", fmt.Errorf("either html or path is required")
}

func (s *Server) handleFormDetect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := s.documentArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	detection := s.service.DetectForm(ctx, raw)
	return mcp.NewToolResultText(formatDetection(detection)), nil
}

func (s *Server) handleFormExtractFields(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := s.documentArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	fields := s.service.ExtractFields(raw)
	text := fmt.Sprintf("Fields found: %d\n", len(fields))
	text += formatFields(fields)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleFormFieldGuidance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	field, err := request.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category, err := formTypeArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	language, err := languageArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := s.service.ResolveGuidance(ctx, field, category, language)

	text := fmt.Sprintf("Field: %s\n", guidance.DisplayName(field))
	text += fmt.Sprintf("Form type: %s\n", category)
	text += fmt.Sprintf("Language: %s\n", resp.Language)
	text += fmt.Sprintf("Source: %s\n\n", resp.Source)
	text += resp.Text
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleFormGuide(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := s.documentArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	language, err := languageArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	guide, err := s.service.GuideForm(ctx, raw, language)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGuide(guide)), nil
}

func (s *Server) handleFormInfo(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("form_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category, ok := intelligence.ParseCategory(raw)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown form type %q", raw)), nil
	}
	info, ok := s.service.FormInfo(category)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no reference data for form type %q", category)), nil
	}

	return mcp.NewToolResultText(formatFormInfo(info)), nil
}

func (s *Server) handleFormList(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	forms := s.service.Forms()

	text := fmt.Sprintf("Supported forms: %d\n", len(forms))
	for i, f := range forms {
		text += fmt.Sprintf("%d. %s (%s) - %s\n", i+1, f.Name, f.NepaliName, f.ID)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleFormChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(message) == "" {
		return mcp.NewToolResultError("message cannot be empty"), nil
	}
	language, err := languageArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := s.service.Chat(ctx, message, stringArg(request, "form_type"), language)

	text := resp.Text
	text += fmt.Sprintf("\n\n(language: %s, source: %s)", resp.Language, resp.Source)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleLanguageGet(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(fmt.Sprintf("Language: %s", s.service.Language())), nil
}

func (s *Server) handleLanguageSet(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("language")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	stored, err := s.service.SetLanguage(guidance.Language(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Language set to: %s", stored)), nil
}

func (s *Server) handleDocumentList(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.service.Documents()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Directory: %s\n", s.config.DataDirectory)
	text += fmt.Sprintf("HTML documents: %d\n", len(docs))
	for i, d := range docs {
		text += fmt.Sprintf("%d. %s (%d bytes, modified %s)\n", i+1, d.Path, d.Size, d.Modified.Format("2006-01-02 15:04"))
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleServerStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := s.service.Status()

	text := fmt.Sprintf("%s v%s\n", s.config.ServerName, st.Version)
	text += fmt.Sprintf("Status: %s\n", st.Status)
	text += fmt.Sprintf("Mode: %s\n", st.Mode)
	text += fmt.Sprintf("Generator available: %t\n", st.GeneratorAvailable)
	if st.Model != "" {
		text += fmt.Sprintf("Model: %s\n", st.Model)
	}
	text += fmt.Sprintf("Language: %s\n", st.Language)
	text += fmt.Sprintf("Classifier stages: %s\n", strings.Join(st.Stages, " -> "))
	text += fmt.Sprintf("Data directory: %s\n", s.config.DataDirectory)
	text += fmt.Sprintf("Uptime: %s\n", st.Uptime)
	return mcp.NewToolResultText(text), nil
}

func formatDetection(d assistant.Detection) string {
	if !d.Detected {
		return "No form detected.\n"
	}

	text := fmt.Sprintf("Form type: %s\n", d.Category)
	text += fmt.Sprintf("Name: %s (%s)\n", d.DisplayName, d.NepaliName)
	text += fmt.Sprintf("Decided by: %s\n", d.Stage)
	text += fmt.Sprintf("Analysis ID: %s\n", d.AnalysisID)
	text += fmt.Sprintf("Fields found: %d\n", d.FieldCount)
	text += formatFields(d.Fields)
	return text
}

func formatFields(fields extraction.Fields) string {
	ids := make([]string, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sb strings.Builder
	for i, id := range ids {
		f := fields[id]
		fmt.Fprintf(&sb, "%d. %s [%s]", i+1, id, f.Kind)
		if f.Label != "" {
			fmt.Fprintf(&sb, " label: %q", f.Label)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatGuide(g assistant.FormGuide) string {
	text := formatDetection(g.Detection)
	if !g.Detection.Detected {
		return text
	}

	text += fmt.Sprintf("\nGuidance (%s):\n", g.Language)
	for _, fg := range g.Fields {
		text += fmt.Sprintf("\n%s [%s]\n%s\n", guidance.DisplayName(fg.Field.Identifier), fg.Guidance.Source, fg.Guidance.Text)
	}
	if g.Form != nil && len(g.Form.Requirements) > 0 {
		text += "\nRequired documents:\n"
		for _, r := range g.Form.Requirements {
			text += fmt.Sprintf("• %s\n", r)
		}
	}
	return text
}

func formatFormInfo(info formstore.FormInfo) string {
	text := fmt.Sprintf("%s (%s)\n", info.Name, info.NepaliName)
	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		text += fmt.Sprintf("\n%s:\n", title)
		for i, item := range items {
			text += fmt.Sprintf("%d. %s\n", i+1, item)
		}
	}
	section("Requirements", info.Requirements)
	section("Process", info.Process)
	section("Locations", info.Locations)
	if info.Contact != "" {
		text += fmt.Sprintf("\nContact: %s\n", info.Contact)
	}
	return text
}
