package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"infrachat/app/client/llm"
	"infrachat/app/config"
	"infrachat/app/service/chat"
	"infrachat/app/service/retrieval"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samber/do"
)

const busyMessage = "The AI service is currently experiencing high demand. Please wait a moment and try again."

var _ do.Shutdownable = (*Service)(nil)

// Service is the inbound HTTP boundary. Errors never leave as raw protocol
// errors: they are converted into assistant-shaped messages so the front end
// always has something to render.
type Service struct {
	cfg     *config.Config
	chatSvc *chat.Service
	app     *fiber.App
}

type chatRequest struct {
	Messages       []chat.Message `json:"messages"`
	ConversationID string         `json:"conversation_id"`
}

type chatResponse struct {
	Choices []choice `json:"choices"`
}

type choice struct {
	Message responseMessage `json:"message"`
}

type responseMessage struct {
	Role     string            `json:"role"`
	Content  string            `json:"content"`
	Context  *responseContext  `json:"context,omitempty"`
	Metadata *responseMetadata `json:"metadata,omitempty"`
}

type responseContext struct {
	Citations []retrieval.Evidence `json:"citations"`
}

type responseMetadata struct {
	ConversationID string `json:"conversation_id"`
}

func New(di *do.Injector) (*Service, error) {
	return newService(
		do.MustInvoke[*config.Config](di),
		do.MustInvoke[*chat.Service](di),
	), nil
}

func newService(cfg *config.Config, chatSvc *chat.Service) *Service {
	s := &Service{
		cfg:     cfg,
		chatSvc: chatSvc,
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s.app.Post("/api/chat/completion", s.handleChatCompletion)
	s.app.Get("/api/health", s.handleHealth)

	return s
}

func (s *Service) Run(_ context.Context) error {
	return s.app.Listen(fmt.Sprintf(":%d", s.cfg.HTTP.Port))
}

func (s *Service) handleChatCompletion(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Invalid request body",
		})
	}

	if len(req.Messages) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"detail": "Messages cannot be empty",
		})
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	answer, err := s.chatSvc.Answer(c.UserContext(), req.Messages)
	if err != nil {
		slog.Error("Error in chat completion",
			"conversation_id", conversationID,
			"error", err,
			"telegram", true)

		return c.JSON(errorResponse(err))
	}

	return c.JSON(chatResponse{
		Choices: []choice{{
			Message: responseMessage{
				Role:    chat.RoleAssistant,
				Content: answer.Content,
				Context: &responseContext{
					Citations: answer.Citations,
				},
				Metadata: &responseMetadata{
					ConversationID: conversationID,
				},
			},
		}},
	})
}

func (s *Service) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// errorResponse maps failures onto assistant messages. Throttling gets a
// distinct friendly text; everything else echoes the error without internals.
func errorResponse(err error) chatResponse {
	content := fmt.Sprintf("An error occurred: %v", err)

	text := strings.ToLower(err.Error())
	if llm.IsRateLimited(err) ||
		strings.Contains(text, "rate limit") ||
		strings.Contains(text, "capacity") ||
		strings.Contains(text, "quota") {
		content = busyMessage
	}

	return chatResponse{
		Choices: []choice{{
			Message: responseMessage{
				Role:    chat.RoleAssistant,
				Content: content,
			},
		}},
	}
}

func (s *Service) Shutdown() error {
	return s.app.Shutdown()
}
