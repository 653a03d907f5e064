package cardclient

import (
	"testing"

	"github.com/angelmondragon/membercards/pkg/db/models"
	"github.com/google/go-cmp/cmp"
)

func TestRender(t *testing.T) {
	photo := "/uploads/ana.png"
	cases := []struct {
		name    string
		member  models.Member
		offline bool
		want    View
	}{
		{
			name: "active with photo",
			member: models.Member{
				Nome: "Ana Silva", NumeroFiliacao: "00001", Validade: "2027-10-19T12:00:00.000Z",
				Ativo: true, Photo: &photo, QRCode: "data:image/png;base64,cG5n",
			},
			want: View{
				Nome: "Ana Silva", Numero: "#00001", Validade: "10/2027", Status: StatusActive,
				Ativo: true, Photo: photo, QRCode: "data:image/png;base64,cG5n",
			},
		},
		{
			name:    "inactive offline without expiry",
			member:  models.Member{Nome: "Bruno", NumeroFiliacao: "00002"},
			offline: true,
			want: View{
				Nome: "Bruno", Numero: "#00002", Validade: "–", Status: StatusInactive, Offline: true,
			},
		},
		{
			name:   "month expiry shown as is",
			member: models.Member{Nome: "Carla", NumeroFiliacao: "00003", Validade: "12/2026", Ativo: true},
			want:   View{Nome: "Carla", Numero: "#00003", Validade: "12/2026", Status: StatusActive, Ativo: true},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, Render(tc.member, tc.offline)); diff != "" {
				t.Fatalf("Render() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
