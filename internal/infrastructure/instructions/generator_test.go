package instructions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"broker-removal/internal/domain/catalog"
	"broker-removal/internal/domain/entity"
)

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := New()
	require.NoError(t, err)
	return g
}

func brokerNamed(t *testing.T, name string) entity.Broker {
	t.Helper()
	for _, b := range catalog.Brokers() {
		if b.Name == name {
			return b
		}
	}
	t.Fatalf("broker %s not in catalog", name)
	return entity.Broker{}
}

func testUser() *entity.UserProfile {
	return &entity.UserProfile{
		ID:             "u1",
		FullName:       "Jane Doe",
		FirstName:      "Jane",
		LastName:       "Doe",
		Email:          "jane@example.com",
		CurrentAddress: "1 Main St, Springfield, IL 62701",
	}
}

func TestInstructionsDedicatedGuides(t *testing.T) {
	g := newGenerator(t)

	pf := brokerNamed(t, "PeopleFinder")
	got, err := g.Instructions(&pf)
	require.NoError(t, err)
	assert.Equal(t, "PeopleFinder", got.BrokerName)
	assert.Equal(t, "Medium", got.Difficulty)
	assert.Equal(t, "85%", got.SuccessRate)
	require.Len(t, got.Steps, 6)
	assert.Equal(t, 1, got.Steps[0].Step)
	assert.Equal(t, 6, got.Steps[5].Step)
	assert.Equal(t, "Navigate to https://www.peoplefinder.com/optout.php", got.Steps[2].Description)
	assert.Equal(t, "privacy@peoplefinder.com", got.ContactInfo["email"])

	ftn := brokerNamed(t, "FamilyTreeNow")
	got, err = g.Instructions(&ftn)
	require.NoError(t, err)
	assert.Equal(t, "Hard", got.Difficulty)
	assert.Equal(t, "20-30 minutes", got.EstimatedTime)
	assert.Len(t, got.Tips, 4)
}

func TestInstructionsMatchesGuideByName(t *testing.T) {
	g := newGenerator(t)
	b := &entity.Broker{Name: "PeopleFinder Pro", Website: "peoplefinder.com"}

	got, err := g.Instructions(b)
	require.NoError(t, err)
	assert.Equal(t, "PeopleFinder", got.BrokerName)
}

func TestInstructionsGenericGuide(t *testing.T) {
	g := newGenerator(t)

	b := &entity.Broker{
		Name:                "Acme Data",
		Website:             "www.acme.example",
		RemovalURL:          "https://www.acme.example/optout",
		RemovalInstructions: "Email the privacy office",
	}
	got, err := g.Instructions(b)
	require.NoError(t, err)
	assert.Equal(t, "Acme Data", got.BrokerName)
	require.Len(t, got.Steps, 5)
	assert.Equal(t, "Visit www.acme.example and search for your information", got.Steps[0].Description)
	assert.Equal(t, "Navigate to their opt-out page: https://www.acme.example/optout", got.Steps[2].Description)
	assert.Equal(t, "Email the privacy office", got.Steps[3].Details)
	assert.Equal(t, "Response time is typically 1-2 weeks", got.Steps[4].Details)
	assert.Equal(t, "privacy@acme.example", got.ContactInfo["email"])
	assert.Equal(t, "https://www.acme.example/optout", got.ContactInfo["removal_url"])

	bare := &entity.Broker{Website: "bare.example", EstimatedTime: "3 days"}
	got, err = g.Instructions(bare)
	require.NoError(t, err)
	assert.Equal(t, "Data Broker", got.BrokerName)
	assert.Equal(t, "Look for privacy policy or opt-out links", got.Steps[2].Description)
	assert.Equal(t, "Follow the instructions on their opt-out page", got.Steps[3].Details)
	assert.Equal(t, "Response time is typically 3 days", got.Steps[4].Details)
}

func TestInstructionsNilBroker(t *testing.T) {
	_, err := newGenerator(t).Instructions(nil)
	assert.Error(t, err)
}

func TestEmailTemplate(t *testing.T) {
	g := newGenerator(t)
	b := brokerNamed(t, "PeopleFinder")

	u := testUser()
	got, err := g.EmailTemplate(u, &b)
	require.NoError(t, err)
	assert.Equal(t, "Request for Data Removal - Jane Doe", got.Subject)
	assert.Equal(t, "privacy@peoplefinder.com", got.Recipient)
	assert.Equal(t, []string{"legal@peoplefinder.com", "support@peoplefinder.com"}, got.CC)
	assert.Contains(t, got.Body, "Dear PeopleFinder Privacy Team,")
	assert.Contains(t, got.Body, "- Phone Number: Not provided")
	assert.Contains(t, got.Body, "California Consumer Privacy Act (CCPA)")
	assert.Contains(t, got.Body, "Right to Erasure (Article 17)")
	assert.Contains(t, got.Body, "- Current Address: 1 Main St, Springfield, IL 62701\n\nLEGAL BASIS")
	assert.NotContains(t, got.Body, "Previous Addresses")

	u.Phone = "555-0100"
	u.PreviousAddresses = []string{"2 Oak Ave", "3 Elm Rd"}
	got, err = g.EmailTemplate(u, &b)
	require.NoError(t, err)
	assert.Contains(t, got.Body, "- Phone Number: 555-0100")
	assert.Contains(t, got.Body, "- Previous Addresses: 2 Oak Ave, 3 Elm Rd\n\nLEGAL BASIS")
}

func TestEmailTemplateStripsWWW(t *testing.T) {
	g := newGenerator(t)
	got, err := g.EmailTemplate(testUser(), &entity.Broker{Name: "Acme", Website: "www.acme.example"})
	require.NoError(t, err)
	assert.Equal(t, "privacy@acme.example", got.Recipient)
}

func TestChecklist(t *testing.T) {
	g := newGenerator(t)
	brokers := []entity.Broker{brokerNamed(t, "PeopleFinder"), brokerNamed(t, "FamilyTreeNow")}
	brokers[0].ID = "b-pf"

	got, err := g.Checklist(testUser(), brokers)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.UserName)
	assert.Equal(t, 2, got.TotalManualBrokers)
	assert.Equal(t, "30-50 minutes", got.EstimatedTotalTime)
	require.Len(t, got.Brokers, 2)

	first := got.Brokers[0]
	assert.Equal(t, "b-pf", first.BrokerID)
	assert.Equal(t, "PeopleFinder", first.Instructions.BrokerName)
	assert.Equal(t, "privacy@peoplefinder.com", first.EmailTemplate.Recipient)
	require.Len(t, first.ChecklistItems, 5)
	assert.Equal(t, "Search for your profile on PeopleFinder", first.ChecklistItems[0].Task)
	for _, item := range first.ChecklistItems {
		assert.False(t, item.Completed)
	}
}

func TestChecklistEmpty(t *testing.T) {
	got, err := newGenerator(t).Checklist(testUser(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalManualBrokers)
	assert.Equal(t, "0-0 minutes", got.EstimatedTotalTime)
	assert.Empty(t, got.Brokers)
}
