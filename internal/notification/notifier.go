package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/events"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/ayo6706/exchange-brokerage/internal/observability"
	"github.com/ayo6706/exchange-brokerage/internal/worker"
	"go.uber.org/zap"
)

// Dispatcher accepts fire-and-forget jobs.
type Dispatcher interface {
	Submit(job worker.Job) bool
}

// ConfigSource yields the site config holding mail credentials and templates.
type ConfigSource interface {
	Get(ctx context.Context) (*models.SiteConfig, error)
}

type Options struct {
	SiteName   string
	AdminEmail string
	OrderTopic string
}

// OrderNotifier fans order lifecycle changes out to email and Kafka through
// the async dispatcher. None of its methods block on delivery or fail the
// caller.
type OrderNotifier struct {
	dispatch  Dispatcher
	sender    Sender
	publisher events.Publisher
	configs   ConfigSource
	opts      Options
	logger    *zap.Logger
}

func NewOrderNotifier(dispatch Dispatcher, sender Sender, publisher events.Publisher, configs ConfigSource, opts Options, logger *zap.Logger) *OrderNotifier {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.SiteName == "" {
		opts.SiteName = "Exchange"
	}
	return &OrderNotifier{
		dispatch:  dispatch,
		sender:    sender,
		publisher: publisher,
		configs:   configs,
		opts:      opts,
		logger:    logger,
	}
}

// OrderPlaced mails the customer and the admin and publishes order.placed.
func (n *OrderNotifier) OrderPlaced(ctx context.Context, order models.Order, customer models.User) {
	correlationID := observability.TraceID(ctx)

	n.submit("email.order_confirmation", func(ctx context.Context) error {
		cfg, creds, err := n.siteConfig(ctx)
		if err != nil {
			return err
		}
		body, err := render(customerTmpl, mailData{
			Name:  customer.FullName(),
			Email: customer.Email,
			Text:  cfg.ConfirmationText(order.Type),
			Order: order,
		})
		if err != nil {
			return err
		}
		return n.sender.Send(ctx, creds, Message{
			To:      customer.Email,
			Subject: fmt.Sprintf("%s: Order Confirmation", n.opts.SiteName),
			HTML:    body,
		})
	})

	if n.opts.AdminEmail != "" {
		n.submit("email.admin_order_alert", func(ctx context.Context) error {
			_, creds, err := n.siteConfig(ctx)
			if err != nil {
				return err
			}
			body, err := render(adminTmpl, mailData{Name: customer.FullName(), Email: customer.Email, Order: order})
			if err != nil {
				return err
			}
			return n.sender.Send(ctx, creds, Message{
				To:      n.opts.AdminEmail,
				Subject: fmt.Sprintf("%s: New %s order", n.opts.SiteName, order.Type),
				HTML:    body,
			})
		})
	}

	n.publish(events.OrderPlaced(correlationID, order))
}

// OrderStatusChanged tells the customer about the new status and publishes
// order.status_changed.
func (n *OrderNotifier) OrderStatusChanged(ctx context.Context, order models.Order, customer models.User, previous domain.OrderStatus) {
	n.submit("email.order_status", func(ctx context.Context) error {
		_, creds, err := n.siteConfig(ctx)
		if err != nil {
			return err
		}
		body, err := render(statusTmpl, mailData{Name: customer.FullName(), Email: customer.Email, Order: order})
		if err != nil {
			return err
		}
		return n.sender.Send(ctx, creds, Message{
			To:      customer.Email,
			Subject: fmt.Sprintf("%s: Order %s", n.opts.SiteName, order.Status),
			HTML:    body,
		})
	})

	n.publish(events.OrderStatusChanged(observability.TraceID(ctx), order, string(previous)))
}

func (n *OrderNotifier) publish(e events.OrderEvent) {
	if n.opts.OrderTopic == "" {
		return
	}
	n.submit("kafka."+e.EventType, func(ctx context.Context) error {
		_, _, err := n.publisher.PublishJSON(ctx, n.opts.OrderTopic, e.OrderID.String(), e)
		return err
	})
}

func (n *OrderNotifier) submit(name string, run func(ctx context.Context) error) {
	if !n.dispatch.Submit(worker.Job{Name: name, Run: run}) {
		n.logger.Warn("notification not queued", zap.String("job", name))
	}
}

// siteConfig loads credentials; a missing config still lets LogSender run.
func (n *OrderNotifier) siteConfig(ctx context.Context) (models.SiteConfig, Credentials, error) {
	cfg, err := n.configs.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrConfigNotFound) {
			n.logger.Warn("site config missing, sending without credentials")
			return models.SiteConfig{}, Credentials{}, nil
		}
		return models.SiteConfig{}, Credentials{}, fmt.Errorf("load site config: %w", err)
	}
	return *cfg, Credentials{Username: cfg.EmailAddress, Password: cfg.EmailPassword}, nil
}
