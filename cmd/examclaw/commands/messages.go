package commands

import (
	"errors"

	"github.com/jholhewres/examclaw/pkg/examclaw/credential"
	"github.com/jholhewres/examclaw/pkg/examclaw/export"
	"github.com/jholhewres/examclaw/pkg/examclaw/gemini"
	"github.com/jholhewres/examclaw/pkg/examclaw/media"
	"github.com/jholhewres/examclaw/pkg/examclaw/session"
	"github.com/jholhewres/examclaw/pkg/examclaw/ticket"
)

// displayError shows the user-facing text while keeping the cause for errors.Is.
type displayError struct{ err error }

func (e *displayError) Error() string { return userMessage(e.err) }
func (e *displayError) Unwrap() error { return e.err }

func friendly(err error) error {
	if err == nil {
		return nil
	}
	return &displayError{err: err}
}

// userMessage turns an error into the short text shown to the user.
func userMessage(err error) string {
	var inputErr *ticket.InputError
	var invErr *gemini.InvocationError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &inputErr):
		return inputErr.Message
	case errors.Is(err, session.ErrNoImage):
		return "Сначала загрузите фото билета"
	case errors.Is(err, session.ErrMissingCredential):
		return "Введите API ключ Gemini (examclaw config set-key)"
	case errors.Is(err, session.ErrBusy):
		return "Подождите, запрос уже выполняется"
	case errors.Is(err, ticket.ErrInvalidExtraction):
		return "Не удалось распознать вопросы на фото"
	case errors.As(err, &invErr):
		if invErr.Last == nil {
			return "Все модели перегружены. Попробуйте через минуту."
		}
		return invErr.Message()
	case errors.Is(err, export.ErrEmptyAnswer):
		return "Сначала сгенерируйте ответы"
	case errors.Is(err, export.ErrClipboardUnsupported):
		return "Буфер обмена недоступен на этой системе"
	case errors.Is(err, media.ErrUnsupportedType):
		return "Поддерживаются только изображения JPEG, PNG, GIF и WebP"
	case errors.Is(err, media.ErrTooLarge):
		return "Файл слишком большой"
	case errors.Is(err, credential.ErrVaultLocked):
		return "Хранилище заблокировано: задайте " + credential.VaultPasswordEnv
	case errors.Is(err, credential.ErrWrongPassword):
		return "Неверный пароль хранилища"
	default:
		return err.Error()
	}
}
