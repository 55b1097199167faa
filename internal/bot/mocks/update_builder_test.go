package mocks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateBuilder_WithMessage(t *testing.T) {
	t.Parallel()

	update := NewUpdateBuilder().WithMessage(1, 2, "/health").Build()
	require.NotNil(t, update.Message)
	require.Equal(t, int64(1), update.Message.Chat.ID)
	require.Equal(t, int64(2), update.Message.From.ID)
	require.Equal(t, "/health", update.Message.Text)
}

func TestUpdateBuilder_WithFrom(t *testing.T) {
	t.Parallel()

	update := NewUpdateBuilder().WithMessage(1, 2, "hi").WithFrom(3, "alex", "Alex", "").Build()
	require.Equal(t, int64(3), update.Message.From.ID)
	require.Equal(t, "alex", update.Message.From.Username)

	update = NewUpdateBuilder().WithFrom(4, "sam", "Sam", "").Build()
	require.NotNil(t, update.Message)
	require.Equal(t, int64(4), update.Message.From.ID)
}

func TestUpdateBuilder_WithoutFrom(t *testing.T) {
	t.Parallel()

	update := NewUpdateBuilder().WithMessage(1, 2, "hi").WithoutFrom().Build()
	require.Nil(t, update.Message.From)
}

func TestUpdateBuilder_WithEditedMessage(t *testing.T) {
	t.Parallel()

	update := NewUpdateBuilder().WithEditedMessage(1, 2, "edited").Build()
	require.Nil(t, update.Message)
	require.Equal(t, "edited", update.EditedMessage.Text)
	require.Equal(t, int64(2), update.EditedMessage.From.ID)
}

func TestCommandUpdate(t *testing.T) {
	t.Parallel()

	update := CommandUpdate(42, "/progress")
	require.Equal(t, int64(42), update.Message.Chat.ID)
	require.Equal(t, int64(42), update.Message.From.ID)
	require.Equal(t, "/progress", update.Message.Text)
}
