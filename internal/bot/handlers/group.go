package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/BaiBeiCha/smart-planner-bot/internal/models"
	"github.com/BaiBeiCha/smart-planner-bot/internal/timezone"
)

func (h *Handlers) handleCreateGroupStart(ctx context.Context, msg *tgbotapi.Message) {
	user := h.requireUser(ctx, msg)
	if user == nil {
		return
	}

	sess := h.sessions.get(msg.From.ID)
	sess.state = stateGroupName
	h.sendMessage(msg.Chat.ID, "Введите название группы:")
}

func (h *Handlers) handleGroupName(msg *tgbotapi.Message, sess *session) {
	name := strings.TrimSpace(msg.Text)

	if len([]rune(name)) < 1 || len([]rune(name)) > 100 {
		h.sendMessage(msg.Chat.ID, "Название группы должно быть от 1 до 100 символов.\nПопробуйте еще раз:")
		return
	}

	sess.title = name
	sess.state = stateGroupDescription
	h.sendMessage(msg.Chat.ID, "Введите описание группы (можно пропустить - skip):")
}

func (h *Handlers) handleGroupDescription(ctx context.Context, msg *tgbotapi.Message, sess *session) {
	description := strings.TrimSpace(msg.Text)
	if description == "skip" {
		description = ""
	}

	group := &models.Group{
		Name:        sess.title,
		Description: description,
		CreatorID:   msg.From.ID,
	}

	if err := h.repos.Group.Create(ctx, group); err != nil {
		logrus.WithError(err).Errorf("Failed to create group for user %d", msg.From.ID)
		h.sendMessage(msg.Chat.ID, "Не удалось создать группу, попробуйте позже.")
		return
	}

	h.sessions.clear(msg.From.ID)
	h.sendMessage(msg.Chat.ID, fmt.Sprintf(
		"🎉 Группа '%s' успешно создана!\nID группы: `%d`. Используйте этот ID для приглашения других участников (/invite_to_group).",
		group.Name, group.ID))
}

func (h *Handlers) handleMyGroups(ctx context.Context, msg *tgbotapi.Message) {
	user := h.requireUser(ctx, msg)
	if user == nil {
		return
	}

	groups, err := h.repos.Group.GetByUserID(ctx, user.TelegramID)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to list groups for user %d", user.TelegramID)
		h.sendMessage(msg.Chat.ID, "Не удалось получить список групп.")
		return
	}

	if len(groups) == 0 {
		h.sendMessage(msg.Chat.ID, "Вы не состоите ни в одной активной группе.")
		return
	}

	var sb strings.Builder
	sb.WriteString("👥 Ваши группы:\n\n")
	for _, group := range groups {
		sb.WriteString(fmt.Sprintf("*%s* (ID: `%d`)\n", group.Name, group.ID))
		if group.Description != "" {
			sb.WriteString(group.Description + "\n")
		}
		sb.WriteString("\n")
	}
	h.sendMessage(msg.Chat.ID, sb.String())
}

func (h *Handlers) handleInviteToGroup(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 {
		h.sendMessage(msg.Chat.ID, "Использование: /invite_to_group <group_id> <username>\nНапример: /invite_to_group 123 john_doe")
		return
	}

	groupID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "ID группы должен быть числом.")
		return
	}
	username := strings.TrimPrefix(args[1], "@")

	group, err := h.repos.Group.GetByID(ctx, groupID)
	if errors.Is(err, models.ErrNotFound) || (err == nil && !group.IsActive) {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("Группа с ID %d не найдена или неактивна.", groupID))
		return
	}
	if err != nil {
		logrus.WithError(err).Errorf("Failed to load group %d", groupID)
		return
	}

	member, err := h.repos.Group.GetMember(ctx, groupID, msg.From.ID)
	if err != nil || !member.IsAdmin {
		h.sendMessage(msg.Chat.ID, "Только администраторы могут приглашать в эту группу.")
		return
	}

	invited, err := h.repos.User.GetByUsername(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("Пользователь @%s не найден.", username))
		return
	}
	if err != nil {
		logrus.WithError(err).Errorf("Failed to look up user @%s", username)
		return
	}

	if _, err := h.repos.Group.GetMember(ctx, groupID, invited.TelegramID); err == nil {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("Пользователь @%s уже состоит в группе '%s'.", username, group.Name))
		return
	}

	if err := h.repos.Group.AddMember(ctx, groupID, invited.TelegramID, false); err != nil {
		logrus.WithError(err).Errorf("Failed to add user %d to group %d", invited.TelegramID, groupID)
		h.sendMessage(msg.Chat.ID, "Не удалось добавить участника, попробуйте позже.")
		return
	}

	h.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ Пользователь @%s успешно приглашен и добавлен в группу '%s'.", username, group.Name))
	h.sendMessage(invited.TelegramID, fmt.Sprintf("🎉 Вы были добавлены в группу *'%s'*!", group.Name))
}

func (h *Handlers) handleLeaveGroup(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		h.sendMessage(msg.Chat.ID, "Использование: /leave_group <group_id>")
		return
	}

	groupID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "ID группы должен быть числом.")
		return
	}

	if _, err := h.repos.Group.GetMember(ctx, groupID, msg.From.ID); err != nil {
		h.sendMessage(msg.Chat.ID, "Вы не состоите в этой группе.")
		return
	}

	group, err := h.repos.Group.GetByID(ctx, groupID)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to load group %d", groupID)
		return
	}

	if group.CreatorID == msg.From.ID {
		// The creator leaving dissolves the whole group.
		members, err := h.repos.Group.GetMembers(ctx, groupID)
		if err != nil {
			logrus.WithError(err).Errorf("Failed to list members of group %d", groupID)
			return
		}

		if err := h.repos.Group.Delete(ctx, groupID); err != nil {
			logrus.WithError(err).Errorf("Failed to delete group %d", groupID)
			h.sendMessage(msg.Chat.ID, "Не удалось удалить группу, попробуйте позже.")
			return
		}

		for _, member := range members {
			if member.UserID != msg.From.ID {
				h.sendMessage(member.UserID, fmt.Sprintf("Группа *'%s'* была удалена ее создателем.", group.Name))
			}
		}
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("❌ Вы были создателем, поэтому группа '%s' удалена для всех.", group.Name))
		return
	}

	if err := h.repos.Group.RemoveMember(ctx, groupID, msg.From.ID); err != nil {
		logrus.WithError(err).Errorf("Failed to remove user %d from group %d", msg.From.ID, groupID)
		h.sendMessage(msg.Chat.ID, "Не удалось покинуть группу, попробуйте позже.")
		return
	}

	h.sendMessage(msg.Chat.ID, fmt.Sprintf("👋 Вы успешно покинули группу '%s'.", group.Name))
	h.sendMessage(group.CreatorID, fmt.Sprintf("Пользователь @%s покинул вашу группу *'%s'*.", msg.From.UserName, group.Name))
}

func (h *Handlers) handleGroupInfo(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		h.sendMessage(msg.Chat.ID, "Использование: /group_info <group_id>\nНапример: /group_info 123")
		return
	}

	groupID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "ID группы должен быть числом.")
		return
	}

	if _, err := h.repos.Group.GetMember(ctx, groupID, msg.From.ID); err != nil {
		h.sendMessage(msg.Chat.ID, "Вы не состоите в этой группе.")
		return
	}

	group, err := h.repos.Group.GetByID(ctx, groupID)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to load group %d", groupID)
		return
	}

	members, err := h.repos.Group.GetMembers(ctx, groupID)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to list members of group %d", groupID)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Информация о группе *'%s'* (ID: `%d`):\n\n", group.Name, group.ID))
	if group.Description != "" {
		sb.WriteString(fmt.Sprintf("Описание: %s\n\n", group.Description))
	}
	sb.WriteString(fmt.Sprintf("Участников: %d\nУчастники:\n", len(members)))

	for _, member := range members {
		user, err := h.repos.User.GetByTelegramID(ctx, member.UserID)
		if err != nil {
			continue
		}
		role := "Участник"
		if member.IsAdmin {
			role = "Админ"
		}
		sb.WriteString(fmt.Sprintf("- %s (@%s) - %s\n", user.Name, user.Username, role))
	}

	h.sendMessage(msg.Chat.ID, sb.String())
}

func (h *Handlers) handleGroupMessageStart(ctx context.Context, msg *tgbotapi.Message) {
	groupID, ok := h.memberGroupID(ctx, msg)
	if !ok {
		return
	}

	sess := h.sessions.get(msg.From.ID)
	sess.groupID = groupID
	sess.state = stateGroupMessageText
	h.sendMessage(msg.Chat.ID, "Введите сообщение для участников группы:")
}

func (h *Handlers) handleGroupMessageText(ctx context.Context, msg *tgbotapi.Message, sess *session) {
	group, err := h.repos.Group.GetByID(ctx, sess.groupID)
	if err != nil {
		h.sessions.clear(msg.From.ID)
		h.sendMessage(msg.Chat.ID, "Группа не найдена.")
		return
	}

	members, err := h.repos.Group.GetMembers(ctx, sess.groupID)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to list members of group %d", sess.groupID)
		h.sendMessage(msg.Chat.ID, "Не удалось отправить сообщение, попробуйте позже.")
		return
	}

	sent := 0
	for _, member := range members {
		if member.UserID == msg.From.ID {
			continue
		}
		h.sendMessage(member.UserID, fmt.Sprintf("💬 Сообщение в группе *'%s'* от @%s:\n\n%s", group.Name, msg.From.UserName, msg.Text))
		sent++
	}

	h.sessions.clear(msg.From.ID)
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ Сообщение отправлено %d участникам группы '%s'.", sent, group.Name))
}

func (h *Handlers) handleAddGroupReminderStart(ctx context.Context, msg *tgbotapi.Message) {
	user := h.requireUser(ctx, msg)
	if user == nil {
		return
	}

	groupID, ok := h.memberGroupID(ctx, msg)
	if !ok {
		return
	}

	sess := h.sessions.get(msg.From.ID)
	sess.groupID = groupID
	sess.timezone = user.Timezone
	sess.state = stateGroupReminderTitle
	h.sendMessage(msg.Chat.ID, "Введите название (заголовок) напоминания:")
}

func (h *Handlers) handleGroupReminderTitle(msg *tgbotapi.Message, sess *session) {
	title := strings.TrimSpace(msg.Text)

	if len([]rune(title)) < 1 || len([]rune(title)) > 200 {
		h.sendMessage(msg.Chat.ID, "Название должно быть от 1 до 200 символов. Попробуйте еще раз:")
		return
	}

	sess.title = title
	sess.state = stateGroupReminderDescription
	h.sendMessage(msg.Chat.ID, "Введите описание (можно пропустить - skip):")
}

func (h *Handlers) handleGroupReminderDescription(msg *tgbotapi.Message, sess *session) {
	description := strings.TrimSpace(msg.Text)
	if description == "skip" {
		description = ""
	}

	sess.description = fmt.Sprintf("Группа: `%d`\n%s", sess.groupID, description)
	sess.state = stateGroupReminderTime
	h.sendMessage(msg.Chat.ID, fmt.Sprintf(timePrompt, sess.timezone))
}

// handleGroupReminderTime fans the reminder out: one row per group
// member, inserted atomically, so the whole group either gets the
// reminder or nobody does. The scheduler itself never knows about
// groups.
func (h *Handlers) handleGroupReminderTime(ctx context.Context, msg *tgbotapi.Message, sess *session) {
	remindAt, ok := h.parseDueTime(ctx, msg.Text, sess.timezone)
	if !ok {
		h.sendMessage(msg.Chat.ID,
			"⚠️ Не удалось распознать дату и время, либо время в прошлом.\nПопробуйте написать проще (например, 'через 20 минут') или используйте формат ДД.ММ.ГГГГ ЧЧ:ММ.")
		return
	}

	members, err := h.repos.Group.GetMembers(ctx, sess.groupID)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to list members of group %d", sess.groupID)
		h.sendMessage(msg.Chat.ID, "Не удалось создать напоминание, попробуйте позже.")
		return
	}

	reminders := make([]*models.Reminder, 0, len(members))
	for _, member := range members {
		reminders = append(reminders, &models.Reminder{
			UserID:      member.UserID,
			Title:       sess.title,
			Description: sess.description,
			RemindAt:    remindAt,
			Timezone:    sess.timezone,
		})
	}

	if err := h.repos.Reminder.CreateBatch(ctx, reminders); err != nil {
		logrus.WithError(err).Errorf("Failed to fan out reminder to group %d", sess.groupID)
		h.sendMessage(msg.Chat.ID, "Не удалось создать напоминание, попробуйте позже.")
		return
	}

	display := remindAt.Format("02.01.2006 15:04") + " UTC"
	if local, err := timezone.ToLocal(remindAt, sess.timezone); err == nil {
		display = local.Format("02.01.2006 15:04")
	}

	h.sendMessage(msg.Chat.ID, fmt.Sprintf(
		"🎉 Напоминание '%s' успешно добавлено для %d участников группы!\n⏰ Сработает: %s (%s).",
		sess.title, len(reminders), display, sess.timezone))
	h.sessions.clear(msg.From.ID)
}

// memberGroupID parses the single group-id argument and verifies the
// sender's membership and the group's existence.
func (h *Handlers) memberGroupID(ctx context.Context, msg *tgbotapi.Message) (int64, bool) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("Использование: /%s <group_id>", msg.Command()))
		return 0, false
	}

	groupID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "ID группы должен быть числом.")
		return 0, false
	}

	if _, err := h.repos.Group.GetMember(ctx, groupID, msg.From.ID); err != nil {
		h.sendMessage(msg.Chat.ID, "Вы не состоите в этой группе.")
		return 0, false
	}

	group, err := h.repos.Group.GetByID(ctx, groupID)
	if err != nil || !group.IsActive {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("Группа с ID %d не найдена или неактивна.", groupID))
		return 0, false
	}

	return groupID, true
}
