package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/IBM/sarama/mocks"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbScope/internal/model"
)

func TestPublisherUpsert(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var env Envelope
		if err := json.Unmarshal(val, &env); err != nil {
			return err
		}
		if env.Type != eventType {
			return fmt.Errorf("unexpected type %q", env.Type)
		}
		var v model.Verdict
		if err := json.Unmarshal(env.Data, &v); err != nil {
			return err
		}
		if v.Type != model.BundleArbNoFlashLoan || v.NetProfit.Cmp(big.NewInt(42)) != 0 {
			return fmt.Errorf("unexpected verdict %+v", v)
		}
		return nil
	})

	pub := NewPublisherWithProducer(producer, "bundles")
	defer pub.Close()

	err := pub.Upsert(context.Background(), model.Verdict{
		Type:      model.BundleArbNoFlashLoan,
		Hash:      common.HexToHash("0x01"),
		NetProfit: big.NewInt(42),
	})
	require.NoError(t, err)
}

func TestPublisherUpsertFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(errors.New("broker down"))

	pub := NewPublisherWithProducer(producer, "bundles")
	defer pub.Close()

	err := pub.Upsert(context.Background(), model.Verdict{Type: model.BundleArbUnrealisedGain, Hash: common.HexToHash("0x02")})
	assert.Error(t, err)
}

func TestPublisherRejectsShortVerdict(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	pub := NewPublisherWithProducer(producer, "bundles")
	defer pub.Close()

	err := pub.Upsert(context.Background(), model.ShortVerdict(model.BundleNoArb))
	assert.Error(t, err)
}
