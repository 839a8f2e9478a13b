package kafka

import (
	"time"

	"github.com/IBM/sarama"
	"github.com/shopspring/decimal"
)

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
}

const (
	LoanTopic = "loan-events"
)

const (
	EventLoanIssued   = "LOAN_ISSUED"
	EventLoanReturned = "LOAN_RETURNED"
)

// LoanEvent is the payload published to LoanTopic on every issue and
// return. Downstream aggregators consume it; the service itself never
// reads it back.
type LoanEvent struct {
	Event      string           `json:"event"`
	LoanID     int64            `json:"loanId"`
	BookID     int64            `json:"bookId"`
	MemberID   int64            `json:"memberId"`
	Date       time.Time        `json:"date"`
	FineAmount *decimal.Decimal `json:"fineAmount,omitempty"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}
