package feed

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func runStoreFeed(t *testing.T, catalog *mockCatalog, doc string) error {
	t.Helper()
	p := NewStoreProcessor(catalog, zap.NewNop())
	return p.process(context.Background(), strings.NewReader(doc))
}

func TestStoreProcessor(t *testing.T) {
	t.Run("upserts chain once both id and name are known", func(t *testing.T) {
		catalog := newMockCatalog()
		doc := `<Root><ChainID>7290027600007</ChainID><ChainName>שופרסל</ChainName></Root>`
		require.NoError(t, runStoreFeed(t, catalog, doc))

		require.Len(t, catalog.chains, 1)
		assert.Equal(t, "שופרסל", catalog.chains["7290027600007"].Name)
	})

	t.Run("handles name before id", func(t *testing.T) {
		catalog := newMockCatalog()
		doc := `<Root><ChainName>רמי לוי</ChainName><ChainID>7290058140886</ChainID></Root>`
		require.NoError(t, runStoreFeed(t, catalog, doc))

		require.Len(t, catalog.chains, 1)
		assert.Equal(t, "רמי לוי", catalog.chains["7290058140886"].Name)
	})

	t.Run("no chain upsert while either field is missing", func(t *testing.T) {
		catalog := newMockCatalog()
		doc := `<Root><ChainID>7290</ChainID></Root>`
		require.NoError(t, runStoreFeed(t, catalog, doc))
		assert.Empty(t, catalog.chains)
	})

	t.Run("takes chain name from a store record when the document level is silent", func(t *testing.T) {
		catalog := newMockCatalog()
		doc := `<Root>
			<ChainID>7290</ChainID>
			<Store><StoreID>001</StoreID><ChainName>ויקטורי</ChainName></Store>
		</Root>`
		require.NoError(t, runStoreFeed(t, catalog, doc))

		require.Len(t, catalog.chains, 1)
		assert.Equal(t, "ויקטורי", catalog.chains["7290"].Name)
		assert.Len(t, catalog.branches, 1)
	})

	t.Run("upserts sub-chains under the current chain", func(t *testing.T) {
		catalog := newMockCatalog()
		doc := `<Root>
			<ChainID>7290</ChainID><ChainName>שופרסל</ChainName>
			<SubChainID>1</SubChainID><SubChainName>שופרסל דיל</SubChainName>
			<SubChainID>2</SubChainID><SubChainName>שופרסל אקספרס</SubChainName>
		</Root>`
		require.NoError(t, runStoreFeed(t, catalog, doc))

		require.Len(t, catalog.subChains, 2)
		assert.Equal(t, "7290", catalog.subChains["1"].ChainID)
		assert.Equal(t, "שופרסל דיל", catalog.subChains["1"].Name)
		assert.Equal(t, "שופרסל אקספרס", catalog.subChains["2"].Name)
	})

	t.Run("sub-chain without a preceding id is ignored", func(t *testing.T) {
		catalog := newMockCatalog()
		doc := `<Root><ChainID>7290</ChainID><SubChainName>orphan</SubChainName></Root>`
		require.NoError(t, runStoreFeed(t, catalog, doc))
		assert.Empty(t, catalog.subChains)
	})

	t.Run("upserts branches with store-level sub-chain taking precedence", func(t *testing.T) {
		catalog := newMockCatalog()
		doc := `<Root>
			<ChainID>7290</ChainID><ChainName>שופרסל</ChainName>
			<SubChainID>1</SubChainID>
			<Store>
				<StoreID>005</StoreID>
				<StoreName>סניף רחובות</StoreName>
				<Address>הרצל 100</Address>
				<City>רחובות</City>
			</Store>
			<Store>
				<StoreID>006</StoreID>
				<SubChainID>2</SubChainID>
			</Store>
		</Root>`
		require.NoError(t, runStoreFeed(t, catalog, doc))

		require.Len(t, catalog.branches, 2)
		first := catalog.branches["005"]
		assert.Equal(t, "7290", first.ChainID)
		assert.Equal(t, "1", first.SubChainID, "document-level sub-chain is the fallback")
		assert.Equal(t, "סניף רחובות", first.Name)
		assert.Equal(t, "רחובות", first.City)
		assert.Equal(t, "2", catalog.branches["006"].SubChainID)
	})

	t.Run("a store-level sub-chain carries forward to later stores", func(t *testing.T) {
		catalog := newMockCatalog()
		doc := `<Root>
			<ChainID>7290</ChainID><ChainName>שופרסל</ChainName>
			<SubChainID>1</SubChainID>
			<Store>
				<StoreID>007</StoreID>
				<SubChainID>2</SubChainID>
			</Store>
			<Store>
				<StoreID>008</StoreID>
			</Store>
		</Root>`
		require.NoError(t, runStoreFeed(t, catalog, doc))

		require.Len(t, catalog.branches, 2)
		assert.Equal(t, "2", catalog.branches["007"].SubChainID)
		assert.Equal(t, "2", catalog.branches["008"].SubChainID,
			"a bare store belongs to the last sub-chain seen, not the document header")
	})

	t.Run("skips store records without a store id", func(t *testing.T) {
		catalog := newMockCatalog()
		doc := `<Root>
			<ChainID>7290</ChainID><ChainName>x</ChainName>
			<Store><StoreName>no id</StoreName></Store>
			<Store><StoreID>001</StoreID></Store>
		</Root>`
		require.NoError(t, runStoreFeed(t, catalog, doc))
		require.Len(t, catalog.branches, 1)
	})

	t.Run("a failing branch upsert does not abort the file", func(t *testing.T) {
		catalog := newMockCatalog()
		catalog.branchErr = errors.New("connection reset")
		doc := `<Root>
			<ChainID>7290</ChainID><ChainName>x</ChainName>
			<Store><StoreID>001</StoreID></Store>
			<Store><StoreID>002</StoreID></Store>
		</Root>`
		require.NoError(t, runStoreFeed(t, catalog, doc))
		assert.Empty(t, catalog.branches)
		assert.Len(t, catalog.chains, 1, "chain upsert still happened")
	})

	t.Run("propagates parse errors", func(t *testing.T) {
		catalog := newMockCatalog()
		err := runStoreFeed(t, catalog, `<Root><ChainID>7290`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse store feed")
	})
}
