package matching

import (
	"testing"
	"time"

	"github.com/varunnandan321-gif/blood-connect/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNotifier_FiresOnMatchingArrival(t *testing.T) {
	me := primitive.NewObjectID()
	other := primitive.NewObjectID()
	donor := Viewer{ID: me, BloodGroup: "O-"}

	existing := makeRequest("A+", "Taipei", "Chen", other, models.RequestStatusActive)
	n := NewNotifier(donor)
	now := time.Now()

	// 第一次快照只記錄狀態，不發出提醒
	alert := n.Observe(now, []models.Request{existing})
	assert.Nil(t, alert, "第一次快照不應該觸發提醒")

	// 新的 O- 請求到達（最新在前）
	arrived := makeRequest("O-", "Kaohsiung", "Lin", other, models.RequestStatusActive)
	alert = n.Observe(now, []models.Request{arrived, existing})
	assert.NotNil(t, alert, "血型相符的新請求應該觸發提醒")
	assert.Equal(t, "Emergency Match!", alert.Title)
	assert.Equal(t, arrived.ID, alert.RequestID)
	assert.Contains(t, alert.Description, "O-")
	assert.Contains(t, alert.Description, "Kaohsiung")
}

func TestNotifier_IgnoresOwnAndMismatched(t *testing.T) {
	me := primitive.NewObjectID()
	other := primitive.NewObjectID()
	donor := Viewer{ID: me, BloodGroup: "O-"}

	n := NewNotifier(donor)
	now := time.Now()
	base := makeRequest("A+", "Taipei", "Chen", other, models.RequestStatusActive)
	n.Observe(now, []models.Request{base})

	// 血型不符的新請求：不提醒
	mismatch := makeRequest("B+", "Taipei", "Wu", other, models.RequestStatusActive)
	assert.Nil(t, n.Observe(now, []models.Request{mismatch, base}), "血型不符不應該觸發提醒")

	// 自己發布的相符請求：不提醒
	own := makeRequest("O-", "Taipei", "Me", me, models.RequestStatusActive)
	assert.Nil(t, n.Observe(now, []models.Request{own, mismatch, base}), "自己發布的請求不應該提醒自己")
}

func TestNotifier_DetectsAllArrivalsByIDSet(t *testing.T) {
	me := primitive.NewObjectID()
	other := primitive.NewObjectID()
	donor := Viewer{ID: me, BloodGroup: "O-"}

	n := NewNotifier(donor)
	now := time.Now()
	base := makeRequest("A+", "Taipei", "Chen", other, models.RequestStatusActive)
	n.Observe(now, []models.Request{base})

	// 兩次快照之間一次到達兩筆請求：最新的一筆血型不符，但較早的一筆相符。
	// 用 ID 集合比對時這筆相符的請求仍然會被發現（長度比對法會漏掉）。
	newer := makeRequest("B+", "Taipei", "Wu", other, models.RequestStatusActive)
	older := makeRequest("O-", "Tainan", "Lin", other, models.RequestStatusActive)
	alert := n.Observe(now, []models.Request{newer, older, base})

	assert.NotNil(t, alert, "同批到達的相符請求不應該被遺漏")
	assert.Equal(t, older.ID, alert.RequestID)
}

func TestNotifier_SingleAlertPerTransition(t *testing.T) {
	me := primitive.NewObjectID()
	other := primitive.NewObjectID()
	donor := Viewer{ID: me, BloodGroup: "O-"}

	n := NewNotifier(donor)
	now := time.Now()
	base := makeRequest("A+", "Taipei", "Chen", other, models.RequestStatusActive)
	n.Observe(now, []models.Request{base})

	// 同一次轉換有兩筆相符的新請求時，只發出一則提醒（取最新的）
	m1 := makeRequest("O-", "Taipei", "Wu", other, models.RequestStatusActive)
	m2 := makeRequest("O-", "Tainan", "Lin", other, models.RequestStatusActive)
	alert := n.Observe(now, []models.Request{m1, m2, base})

	assert.NotNil(t, alert)
	assert.Equal(t, m1.ID, alert.RequestID, "提醒應該指向最新的一筆配對")
}

func TestNotifier_AutoClearAfterFiveSeconds(t *testing.T) {
	me := primitive.NewObjectID()
	other := primitive.NewObjectID()
	donor := Viewer{ID: me, BloodGroup: "O-"}

	n := NewNotifier(donor)
	now := time.Now()
	base := makeRequest("A+", "Taipei", "Chen", other, models.RequestStatusActive)
	n.Observe(now, []models.Request{base})

	arrived := makeRequest("O-", "Kaohsiung", "Lin", other, models.RequestStatusActive)
	alert := n.Observe(now, []models.Request{arrived, base})
	assert.NotNil(t, alert)

	// 5 秒內有效，滿 5 秒自動失效
	assert.True(t, n.Active(now.Add(4*time.Second)), "提醒在 5 秒內應該有效")
	assert.False(t, n.Active(now.Add(5*time.Second)), "提醒滿 5 秒後應該自動消失")
}

func TestNotifier_Dismiss(t *testing.T) {
	me := primitive.NewObjectID()
	other := primitive.NewObjectID()
	donor := Viewer{ID: me, BloodGroup: "O-"}

	n := NewNotifier(donor)
	now := time.Now()
	base := makeRequest("A+", "Taipei", "Chen", other, models.RequestStatusActive)
	n.Observe(now, []models.Request{base})

	arrived := makeRequest("O-", "Kaohsiung", "Lin", other, models.RequestStatusActive)
	n.Observe(now, []models.Request{arrived, base})
	assert.True(t, n.Active(now))

	// 使用者點擊提醒後立即清除
	n.Dismiss()
	assert.False(t, n.Active(now), "Dismiss 之後提醒應該立即消失")
}

func TestNotifier_NoAlertWithoutRegisteredGroup(t *testing.T) {
	me := primitive.NewObjectID()
	other := primitive.NewObjectID()

	// 未登記血型的使用者永遠不會收到配對提醒
	n := NewNotifier(Viewer{ID: me})
	now := time.Now()
	base := makeRequest("A+", "Taipei", "Chen", other, models.RequestStatusActive)
	n.Observe(now, []models.Request{base})

	arrived := makeRequest("O-", "Kaohsiung", "Lin", other, models.RequestStatusActive)
	assert.Nil(t, n.Observe(now, []models.Request{arrived, base}))
}
