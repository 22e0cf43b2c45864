// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package events

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecraft/internal/models"
)

type capture struct {
	key  string
	body []byte
	err  error
}

func (c *capture) Publish(_ context.Context, key string, body []byte) error {
	c.key, c.body = key, body
	return c.err
}

func (c *capture) Close() error { return nil }

func TestEmit(t *testing.T) {
	c := &capture{}
	e := ProjectEvent{
		ProjectID: uuid.New(),
		OwnerID:   "user-1",
		Event:     "deployment_succeeded",
		From:      models.ProjectStatusDeveloping,
		To:        models.ProjectStatusDeployed,
		At:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, Emit(context.Background(), c, e))
	assert.Equal(t, "project.deployment_succeeded", c.key)

	var decoded ProjectEvent
	require.NoError(t, json.Unmarshal(c.body, &decoded))
	assert.Equal(t, e, decoded)

	c.err = errors.New("broker down")
	assert.Error(t, Emit(context.Background(), c, e))
}

func TestDiscard(t *testing.T) {
	var p Publisher = Discard{}
	assert.NoError(t, p.Publish(context.Background(), "project.created", nil))
	assert.NoError(t, p.Close())
}

func TestRabbitPublisherIntegration(t *testing.T) {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		t.Skip("skipping: RABBITMQ_URL not set")
	}
	p, err := NewRabbitPublisher(url, "pagecraft.test")
	if err != nil {
		t.Skipf("skipping: RabbitMQ not available: %v", err)
	}
	defer p.Close()

	err = Emit(context.Background(), p, ProjectEvent{ProjectID: uuid.New(), Event: "created", At: time.Now().UTC()})
	assert.NoError(t, err)
}
