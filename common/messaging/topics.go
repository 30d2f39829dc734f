// Package messaging defines the analytics topic layout on the message bus.
package messaging

import "github.com/pagepulse/pagepulse-stack/common/events"

// SubjectPrefix namespaces all analytics event subjects so a single stream
// can capture them with events.>.
const SubjectPrefix = "events."

// EventSubject returns the bus subject for an analytics topic.
// Example: events.page_load
func EventSubject(topic string) string {
	return SubjectPrefix + topic
}

// Topic groups: each dispatcher consumer owns one disjoint set of topics.
var (
	PageTopics = []string{
		events.TypePageLoad,
		events.TypePageView,
		events.TypePageUnload,
		events.TypePageHidden,
		events.TypePageVisible,
	}

	InteractionTopics = []string{
		events.TypeMouseClick,
		events.TypeButtonClick,
		events.TypeLinkClick,
		events.TypeFileDownload,
	}

	FormTopics = []string{
		events.TypeFormSubmit,
		events.TypeFormFocus,
		events.TypeFormInput,
	}

	EcommerceTopics = []string{
		events.TypeProductView,
		events.TypeCartAdd,
		events.TypeCartRemove,
		events.TypeCheckoutStep,
		events.TypePurchase,
	}

	VideoTopics = []string{events.TopicVideoEvents}

	ScrollTopics = []string{events.TypeScrollDepth}

	MouseTopics = []string{events.TypeMouseMove}

	PeriodicTopics = []string{events.TypePeriodicEvents}
)

// Durable consumer names for the dispatcher, one per topic group.
const (
	ConsumerPageEvents        = "page-events"
	ConsumerInteractionEvents = "interaction-events"
	ConsumerFormEvents        = "form-events"
	ConsumerEcommerceEvents   = "ecommerce-events"
	ConsumerVideoEvents       = "video-events"
	ConsumerScrollEvents      = "scroll-events"
	ConsumerMouseEvents       = "mouse-events"
	ConsumerPeriodicEvents    = "periodic-events"
)

// EventSubjects maps a topic list to bus subjects.
func EventSubjects(topics []string) []string {
	subjects := make([]string, len(topics))
	for i, t := range topics {
		subjects[i] = EventSubject(t)
	}
	return subjects
}
