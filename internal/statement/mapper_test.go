package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHeader(t *testing.T) {
	tests := []struct {
		header string
		want   Field
	}{
		{"Date", FieldDate},
		{"Transaction Date", FieldDate},
		{"VALUE DATE", FieldDate},
		{"Description", FieldDescription},
		{"Narration", FieldDescription},
		{"Transaction Details", FieldDescription},
		{"Memo", FieldDescription},
		{"Particulars", FieldDescription},
		{"Amount", FieldAmount},
		{"Debit", FieldAmount},
		{"Credit Amount", FieldAmount},
		{"Value", FieldAmount},
		{"Reference", FieldReference},
		{"Cheque Ref", FieldReference},
		{"Transaction ID", FieldReference},
		{"Account Number", FieldAccount},
		{"Balance", FieldNone},
		{"  ", FieldNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyHeader(tt.header), "ClassifyHeader(%q)", tt.header)
	}
}

func TestMapHeader(t *testing.T) {
	cols := MapHeader([]string{"Posting Date", "Value Date", "Narration", "Debit", "Credit", "Balance", "Ref No", "Account"})

	assert.Equal(t, 0, cols.Date, "leftmost date column wins")
	assert.Equal(t, 2, cols.Description)
	assert.Equal(t, []int{3, 4}, cols.Amount)
	assert.Equal(t, 6, cols.Reference)
	assert.Equal(t, 7, cols.Account)
	assert.True(t, cols.Usable())
}

func TestMapHeader_Unusable(t *testing.T) {
	cols := MapHeader([]string{"Description", "Amount", "Balance"})
	assert.Equal(t, -1, cols.Date)
	assert.False(t, cols.Usable())

	cols = MapHeader([]string{"Date", "Description", "Balance"})
	assert.Empty(t, cols.Amount)
	assert.False(t, cols.Usable())

	cols = MapHeader(nil)
	assert.False(t, cols.Usable())
}
