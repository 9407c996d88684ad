package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/levelup-project/levelup/internal/models"
	"github.com/levelup-project/levelup/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSend_EmptyInputMakesNoCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := NewMockCompleter(ctrl)
	// No EXPECT: any call fails the test.

	s := NewSession(completer, Options{})
	before := s.Messages()

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := s.Send(context.Background(), "", Input{Text: text})
		require.ErrorIs(t, err, ErrEmptyInput)
	}

	assert.Equal(t, before, s.Messages())
	assert.Empty(t, s.History())
}

func TestSend_SuccessAddsTwoTurns(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := NewMockCompleter(ctrl)

	completer.EXPECT().
		Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs []models.Message) (string, error) {
			require.Len(t, msgs, 2)
			assert.Equal(t, models.RoleSystem, msgs[0].Role)
			assert.Equal(t, "What is 2+2?", msgs[1].Text)
			return "4", nil
		})

	s := NewSession(completer, Options{System: "Be precise."})
	ex, err := s.Send(context.Background(), "ignored", Input{Text: "What is 2+2?"})
	require.NoError(t, err)

	assert.Equal(t, "4", ex.Reply)
	assert.False(t, ex.Failed)

	msgs := s.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, models.RoleUser, msgs[1].Role)
	assert.Equal(t, models.RoleAssistant, msgs[2].Role)
	assert.Equal(t, "4", msgs[2].Text)
	assert.Equal(t, "Be precise.", s.System())
}

func TestSend_FailureKeepsUserTurn(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := NewMockCompleter(ctrl)
	completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", errors.New("401 Unauthorized"))

	s := NewSession(completer, Options{})
	ex, err := s.Send(context.Background(), "", Input{Text: "hello"})
	require.NoError(t, err)

	assert.True(t, ex.Failed)
	assert.Equal(t, "Error: 401 Unauthorized", ex.Reply)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	last := msgs[len(msgs)-1]
	assert.Equal(t, models.RoleUser, last.Role)
	assert.Equal(t, "hello", last.Text)

	history := s.History()
	require.Len(t, history, 1)
	assert.True(t, history[0].Failed)
}

func TestSend_TranscriptGrowsAcrossTurns(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := NewMockCompleter(ctrl)
	gomock.InOrder(
		completer.EXPECT().Complete(gomock.Any(), gomock.Len(2)).Return("first", nil),
		completer.EXPECT().Complete(gomock.Any(), gomock.Len(4)).Return("", errors.New("timeout")),
		completer.EXPECT().Complete(gomock.Any(), gomock.Len(5)).Return("third", nil),
	)

	s := NewSession(completer, Options{})
	for _, text := range []string{"a", "b", "c"} {
		_, err := s.Send(context.Background(), "", Input{Text: text})
		require.NoError(t, err)
	}

	assert.Equal(t, 6, len(s.Messages()))
	last := s.Messages()[5]
	assert.Equal(t, models.RoleAssistant, last.Role)
	assert.Len(t, s.History(), 3)
}

func TestSend_SyncSystem(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := NewMockCompleter(ctrl)
	completer.EXPECT().
		Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs []models.Message) (string, error) {
			assert.Equal(t, "Answer in French.", msgs[0].Text)
			return "Bonjour", nil
		})

	s := NewSession(completer, Options{SyncSystem: true})
	_, err := s.Send(context.Background(), "Answer in French.", Input{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Answer in French.", s.System())
}

func TestSend_ImageMakesMultipartTurn(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := NewMockCompleter(ctrl)
	completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("An orange.", nil)

	s := NewSession(completer, Options{})
	ex, err := s.Send(context.Background(), "", Input{Text: "What is it?", Image: "data:image/jpeg;base64,AA=="})
	require.NoError(t, err)
	assert.True(t, ex.HasImage)

	user := s.Messages()[1]
	require.Len(t, user.Parts, 2)
	assert.Equal(t, models.PartText, user.Parts[0].Type)
	assert.Equal(t, models.PartImage, user.Parts[1].Type)
}

func TestReset(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := NewMockCompleter(ctrl)
	completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("ok", nil)

	s := NewSession(completer, Options{System: "one"})
	_, err := s.Send(context.Background(), "", Input{Text: "x"})
	require.NoError(t, err)

	s.Reset("")
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, transcript.DefaultSystemMessage, msgs[0].Text)
	assert.Empty(t, s.History())

	s.Reset("two")
	assert.Equal(t, "two", s.System())
}

func TestAsk(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := NewMockCompleter(ctrl)
	completer.EXPECT().
		Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs []models.Message) (string, error) {
			require.Len(t, msgs, 2)
			assert.Equal(t, "Fruit expert.", msgs[0].Text)
			require.Len(t, msgs[1].Parts, 1)
			assert.Equal(t, models.PartImage, msgs[1].Parts[0].Type)
			return "A ripe banana.", nil
		})

	got, err := Ask(context.Background(), completer, "Fruit expert.", Input{Image: "https://x/banana.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "A ripe banana.", got)

	_, err = Ask(context.Background(), completer, "", Input{Text: " "})
	assert.ErrorIs(t, err, ErrEmptyInput)
}
