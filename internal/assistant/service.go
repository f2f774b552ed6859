// Package assistant is the orchestrator facade: it exposes the resolution
// and session operations to callers and drives the chat-model/tool loop for
// conversational turns.
package assistant

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hospital-assistant/internal/common/logger"
	"hospital-assistant/internal/common/observability"
	"hospital-assistant/internal/escalation"
	"hospital-assistant/internal/match"
	"hospital-assistant/internal/models"
	"hospital-assistant/internal/policy"
	"hospital-assistant/internal/providers/chat"
	"hospital-assistant/internal/session"
	"hospital-assistant/internal/tools"
)

const systemPrompt = `You are a hospital network assistant. Brief responses only. No emojis.

TOOL SELECTION:
- For ADDRESS requests ("give me address of X") = Use get_hospital_details
- For "which city is X in?" = Use find_hospital_location
- For "is X in my network?" = Use confirm_hospital_in_network
- For "hospitals in Y city" = Use get_hospitals_by_city

WHEN TOOL ASKS FOR CITY:
If tool response contains "Which city?" or "exists in multiple cities" =
YOU MUST ask the user: "Which city are you looking for?"
Do NOT list all cities with details. Just ask which city.

RULES:
1. ONLY use data from tool responses. NEVER invent hospital names.
2. If tool says "not found" = Say "I dont have that hospital"
3. Keep responses under 50 words
4. Pass tool's clarification questions directly to user

NON-HOSPITAL topics = "FORWARD_TO_HUMAN: I'm sorry, I can't help with that. I am forwarding this to a human agent."`

// apologyText is returned when the chat model fails; the caller never sees
// an error.
const apologyText = "I'm sorry, I encountered an error processing your request. " +
	"Could you please try again or rephrase your question?"

// maxToolRounds bounds the model/tool back-and-forth within one turn.
const maxToolRounds = 4

// Service wires the match engine, tools, sessions, escalation and the chat
// model together.
type Service struct {
	engine   *match.Engine
	registry *tools.Registry
	sessions session.Store
	trigger  *escalation.Trigger
	model    chat.Model
	obs      *observability.Observability
	log      logger.Logger
}

func NewService(
	engine *match.Engine,
	registry *tools.Registry,
	sessions session.Store,
	trigger *escalation.Trigger,
	model chat.Model,
	obs *observability.Observability,
	log logger.Logger,
) *Service {
	return &Service{
		engine:   engine,
		registry: registry,
		sessions: sessions,
		trigger:  trigger,
		model:    model,
		obs:      obs,
		log:      log,
	}
}

// ResolveByNameAndCity resolves a name fragment with an optional city.
// Placeholder city values count as no city. maxResults caps each city's
// record list in an ambiguous result.
func (s *Service) ResolveByNameAndCity(name, city string, maxResults int) models.MatchResult {
	if !policy.CitySupplied(city) {
		city = ""
	}
	res := s.engine.Resolve(name, city)
	if res.Kind == models.MatchAmbiguous && maxResults > 0 {
		for c, records := range res.ByCity {
			if len(records) > maxResults {
				res.ByCity[c] = records[:maxResults]
			}
		}
	}
	return res
}

// ResolveByCity lists records in the given city.
func (s *Service) ResolveByCity(city string, maxResults int) []*models.Hospital {
	return s.engine.ByCity(city, maxResults)
}

// GroupByName groups every record matching name by its own city.
func (s *Service) GroupByName(name string) (map[string][]*models.Hospital, []string) {
	return s.engine.GroupByCity(name)
}

func (s *Service) SessionAppend(ctx context.Context, userID string, turn models.Turn) error {
	return s.sessions.Append(ctx, userID, turn)
}

func (s *Service) SessionClear(ctx context.Context, userID string) error {
	return s.sessions.Clear(ctx, userID)
}

func (s *Service) SessionSnapshot(ctx context.Context, userID string) ([]models.Turn, error) {
	return s.sessions.Snapshot(ctx, userID)
}

// Chat runs one conversational turn: prior history plus the new utterance
// goes to the model, tool calls are dispatched until the model produces
// text, and the escalation trigger gets the last word. Model failures
// resolve to a fixed apology, never an error.
func (s *Service) Chat(ctx context.Context, userID, userText string) string {
	start := time.Now()
	outcome := "ok"
	defer func() {
		s.obs.RecordTurn(ctx, outcome)
		s.obs.RecordTurnDuration(ctx, time.Since(start), outcome)
	}()

	history, err := s.sessions.Snapshot(ctx, userID)
	if err != nil {
		s.log.WithError(err).Warn("session history unavailable, continuing without it", map[string]interface{}{
			"user_id": userID,
		})
	}

	messages := make([]chat.Message, 0, 2*len(history)+2)
	messages = append(messages, chat.Message{Role: chat.RoleSystem, Content: systemPrompt})
	for _, turn := range history {
		messages = append(messages,
			chat.Message{Role: chat.RoleUser, Content: turn.UserText},
			chat.Message{Role: chat.RoleAssistant, Content: turn.AssistantText},
		)
	}
	messages = append(messages, chat.Message{Role: chat.RoleUser, Content: userText})

	defs := s.toolDefinitions()

	var responseText string
	for round := 0; ; round++ {
		if round > maxToolRounds {
			s.log.Warn("tool round limit reached", map[string]interface{}{
				"user_id": userID,
			})
			outcome = "tool_loop_aborted"
			return apologyText
		}

		msg, err := s.model.Complete(ctx, messages, defs)
		if err != nil {
			s.log.WithError(err).Error("chat model call failed", map[string]interface{}{
				"user_id": userID,
			})
			outcome = "model_failed"
			return apologyText
		}

		if len(msg.ToolCalls) == 0 {
			responseText = msg.Content
			break
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			result, err := s.registry.Dispatch(ctx, call.Function.Name, call.Function.Arguments)
			if err != nil {
				s.log.WithError(err).Warn("tool dispatch failed", map[string]interface{}{
					"user_id": userID,
					"tool":    call.Function.Name,
				})
				result = apologyText
			}
			messages = append(messages, chat.Message{
				Role:       chat.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	if escalation.Detected(responseText) {
		outcome = "escalated"
		return s.trigger.Process(ctx, userID, userText, responseText)
	}

	turn := models.Turn{
		ID:            uuid.NewString(),
		UserText:      userText,
		AssistantText: responseText,
		At:            time.Now().UTC(),
	}
	if err := s.sessions.Append(ctx, userID, turn); err != nil {
		s.log.WithError(err).Warn("failed to record turn", map[string]interface{}{
			"user_id": userID,
		})
	}

	return responseText
}

func (s *Service) toolDefinitions() []chat.ToolDefinition {
	all := s.registry.All()
	defs := make([]chat.ToolDefinition, 0, len(all))
	for _, t := range all {
		defs = append(defs, chat.ToolDefinition{
			Type: "function",
			Function: chat.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Schema,
			},
		})
	}
	return defs
}
