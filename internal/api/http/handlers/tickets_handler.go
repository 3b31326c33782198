package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/discord-modmail/modmail/internal/api/dto"
	"github.com/discord-modmail/modmail/internal/auth"
	"github.com/discord-modmail/modmail/internal/domain"
	"github.com/discord-modmail/modmail/internal/repository"
	"github.com/discord-modmail/modmail/pkg/errorutil"
)

// TicketService is the ticket workflow used by the dashboard.
type TicketService interface {
	ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error)
	GetTicket(ctx context.Context, id string) (*domain.Ticket, []domain.Message, error)
	CloseByID(ctx context.Context, id, closedBy, reason string) (*domain.Ticket, error)
}

// TicketsHandler manages dashboard ticket endpoints.
type TicketsHandler struct {
	service TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.service.ListTickets(c.UserContext(), parseTicketQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, msgs, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, msgs)})
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("login required")
	}
	var req dto.CloseTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errorutil.NewValidationError("invalid payload", nil)
		}
	}
	ticket, err := h.service.CloseByID(c.UserContext(), c.Params("id"), "dashboard:"+principal.Username, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if creator := c.Query("creator_id"); creator != "" {
		filter.CreatorID = &creator
	}
	if guild := c.Query("guild_id"); guild != "" {
		filter.GuildID = &guild
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	if pageSize > 100 {
		pageSize = 100
	}
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:          ticket.ID,
		GuildID:     ticket.GuildID,
		ThreadID:    ticket.ThreadID,
		CreatorID:   ticket.CreatorID,
		CreatorName: ticket.CreatorName,
		Status:      ticket.Status,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		ClosedAt:    ticket.ClosedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, messages []domain.Message) dto.TicketDetailResponse {
	msgs := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		msgs = append(msgs, messageResponse(&messages[i]))
	}
	return dto.TicketDetailResponse{
		TicketSummary:     ticketSummary(ticket),
		CreatingMessageID: ticket.CreatingMessageID,
		CreatingChannelID: ticket.CreatingChannelID,
		ClosedBy:          ticket.ClosedBy,
		CloseReason:       ticket.CloseReason,
		Messages:          msgs,
	}
}

func messageResponse(msg *domain.Message) dto.MessageResponse {
	attachments := make([]dto.AttachmentResponse, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		attachments = append(attachments, dto.AttachmentResponse{
			ID:        att.ID,
			FileName:  att.FileName,
			URL:       att.URL,
			MimeType:  att.MimeType,
			SizeBytes: att.SizeBytes,
		})
	}
	return dto.MessageResponse{
		ID:          msg.ID,
		SourceID:    msg.SourceID,
		MirroredID:  msg.MirroredID,
		AuthorID:    msg.AuthorID,
		Direction:   msg.Direction,
		Internal:    msg.Internal,
		Content:     msg.Content,
		Attachments: attachments,
		CreatedAt:   msg.CreatedAt,
		EditedAt:    msg.EditedAt,
		DeletedAt:   msg.DeletedAt,
	}
}
