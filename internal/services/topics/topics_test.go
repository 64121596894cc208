package topics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rankparty/internal/dependencies/mocks"
	"github.com/mcoot/rankparty/internal/model"
)

type TopicsSuite struct {
	suite.Suite
	random *mocks.MockRandom
}

func TestTopicsSuite(t *testing.T) {
	suite.Run(t, new(TopicsSuite))
}

func (s *TopicsSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
}

func (s *TopicsSuite) TestPickUsesRandomIndex() {
	service := New(s.random, []string{"Best Smells", "Worst Smells", "Fake Jobs"})
	s.random.QueueIntn(2, 0)

	s.Equal("Fake Jobs", service.Pick())
	s.Equal("Best Smells", service.Pick())
}

func (s *TopicsSuite) TestEmptyListFallsBackToDefaults() {
	service := New(s.random, nil)
	s.Equal(len(Default()), service.Len())
	s.Equal(Default()[0], service.Pick())
}

func (s *TopicsSuite) TestBlankTopicFallsBackToMisc() {
	service := New(s.random, []string{""})
	s.Equal(model.FallbackCategoryName, service.Pick())
}

func (s *TopicsSuite) TestDefaultListHasNoDuplicates() {
	seen := make(map[string]bool)
	for _, topic := range Default() {
		s.False(seen[topic], "duplicate topic %q", topic)
		seen[topic] = true
	}
	s.Greater(len(seen), 100)
}

func (s *TopicsSuite) TestLoadFile() {
	path := filepath.Join(s.T().TempDir(), "topics.txt")
	content := "# party pack\nBest Naps\n\n  Worst Alarms  \n"
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	topics, err := LoadFile(path)
	s.Require().NoError(err)
	s.Equal([]string{"Best Naps", "Worst Alarms"}, topics)
}

func (s *TopicsSuite) TestLoadFileMissing() {
	_, err := LoadFile(filepath.Join(s.T().TempDir(), "missing.txt"))
	s.Error(err)
}
