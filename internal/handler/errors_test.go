package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"spacerent/internal/service"

	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: user not found with id: 9", service.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: message content cannot be empty", service.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: you can only delete your own messages", service.ErrPermissionDenied), http.StatusForbidden},
		{fmt.Errorf("save message: %w", errors.New("disk full")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			require.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
