package letter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	data := Data{
		InstituteName:    "East African Vocational Institute",
		InstituteAddress: "P.O. Box 1234, Nakuru",
		FullName:         "John Mwangi",
		AdmissionNumber:  "EAVI/1001/26",
		Course:           "Plumbing",
		ReportingDate:    "2026-05-04",
		FeePerYear:       32000,
		FeeBalance:       1500,
	}

	pdf, err := Generate(data)
	require.NoError(t, err)
	require.True(t, len(pdf) > 4)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

func TestGenerateEmptyFees(t *testing.T) {
	pdf, err := Generate(Data{
		InstituteName:   "East African Vocational Institute",
		FullName:        "Grace Achieng",
		AdmissionNumber: "EAVI/1002/26",
		Course:          "Catering",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
}
