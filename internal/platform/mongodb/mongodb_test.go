package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestHelloReplyTransactional(t *testing.T) {
	tests := []struct {
		name  string
		reply bson.D
		want  bool
	}{
		{"standalone", bson.D{{Key: "isWritablePrimary", Value: true}}, false},
		{"replica set", bson.D{{Key: "isWritablePrimary", Value: true}, {Key: "setName", Value: "rs0"}}, true},
		{"mongos", bson.D{{Key: "isWritablePrimary", Value: true}, {Key: "msg", Value: "isdbgrid"}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := bson.Marshal(tc.reply)
			require.NoError(t, err)
			var hello helloReply
			require.NoError(t, bson.Unmarshal(raw, &hello))
			assert.Equal(t, tc.want, hello.transactional())
		})
	}
}
